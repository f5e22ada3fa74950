package api

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// PictureField - имя единственного бинарного поля в формах API
const PictureField = "picture"

const defaultPictureName = "picture.png"

// File - бинарная часть multipart формы
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Field - поле multipart формы. Value может быть скаляром, указателем на скаляр или *File.
type Field struct {
	Value any
	Name  string
}

// Form - упорядоченный набор полей формы
type Form []Field

// Add добавляет поле и возвращает форму
func (f Form) Add(name string, value any) Form {
	return append(f, Field{Name: name, Value: value})
}

// encode сериализует форму. Поля со значением nil (в т.ч. nil указатель) пропускаются.
// *File отправляется файловой частью всегда, когда он не nil, даже с пустым содержимым.
func (f Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, field := range f {
		if file, ok := field.Value.(*File); ok {
			if file == nil {
				continue
			}
			if err := writeFilePart(w, field.Name, file); err != nil {
				return nil, "", err
			}
			continue
		}

		value, ok := formValue(field.Value)
		if !ok {
			continue
		}
		if err := w.WriteField(field.Name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %q: %w", field.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, name string, file *File) error {
	filename := file.Filename
	if filename == "" {
		filename = defaultPictureName
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(name), escapeQuotes(filename)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part %q: %w", name, err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return fmt.Errorf("failed to write file part %q: %w", name, err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// formValue приводит скаляр к строке; false - значение отсутствует.
// Любой nil указатель считается отсутствующим значением.
func formValue(v any) (string, bool) {
	if isNilPointer(v) {
		return "", false
	}

	switch val := v.(type) {
	case string:
		return val, true
	case *string:
		return *val, true
	case bool:
		return strconv.FormatBool(val), true
	case *bool:
		return strconv.FormatBool(*val), true
	case int:
		return strconv.Itoa(val), true
	case *int:
		return strconv.Itoa(*val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case *int64:
		return strconv.FormatInt(*val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case *float64:
		return strconv.FormatFloat(*val, 'f', -1, 64), true
	case time.Time:
		return val.Format(time.RFC3339), true
	case *time.Time:
		return val.Format(time.RFC3339), true
	case fmt.Stringer:
		return val.String(), true
	default:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer {
			return fmt.Sprint(rv.Elem().Interface()), true
		}
		return fmt.Sprint(val), true
	}
}

func isNilPointer(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
