package api

// CityNameField - поле записи с латинским названием населенного пункта
const CityNameField = "שם_ישוב_לועזי"

// CityRecord - запись справочника населенных пунктов. Кроме названия
// справочник отдает и другие поля, клиенту они не нужны.
type CityRecord map[string]any

// Name возвращает название или пустую строку, если поля нет
func (r CityRecord) Name() string {
	name, _ := r[CityNameField].(string)
	return name
}

// CitiesResponse - ответ datastore со списком населенных пунктов
type CitiesResponse struct {
	Result struct {
		Records []CityRecord `json:"records"`
	} `json:"result"`
}
