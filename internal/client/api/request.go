package api

import (
	"net/http"
	"net/url"
)

// ContentKind задает способ кодирования тела запроса
type ContentKind int

const (
	// ContentJSON - тело кодируется в application/json
	ContentJSON ContentKind = iota
	// ContentMultipart - тело кодируется в multipart/form-data
	ContentMultipart
)

// Request описывает HTTP запрос относительно базового URL клиента.
// Тело хранится в исходном виде и кодируется заново на каждую попытку,
// поэтому запрос можно безопасно повторить после обновления токенов.
type Request struct {
	Query  url.Values
	Header http.Header
	JSON   any
	Method string
	Path   string
	Form   Form
	Kind   ContentKind

	// retried выставляется перехватчиком после обновления токенов
	retried bool
}

// NewRequest создает запрос без тела
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path}
}

// NewJSONRequest создает запрос с JSON телом
func NewJSONRequest(method, path string, body any) *Request {
	return &Request{Method: method, Path: path, JSON: body, Kind: ContentJSON}
}

// NewMultipartRequest создает запрос с multipart телом
func NewMultipartRequest(method, path string, form Form) *Request {
	return &Request{Method: method, Path: path, Form: form, Kind: ContentMultipart}
}

// SetQuery добавляет query параметр
func (r *Request) SetQuery(key, value string) *Request {
	if r.Query == nil {
		r.Query = url.Values{}
	}
	r.Query.Set(key, value)
	return r
}

// SetHeader добавляет заголовок
func (r *Request) SetHeader(key, value string) *Request {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set(key, value)
	return r
}

// Retried сообщает, был ли запрос уже повторен после обновления токенов
func (r *Request) Retried() bool {
	return r.retried
}

// clone копирует запрос; тело (JSON, Form) не меняется между попытками и не копируется
func (r *Request) clone() *Request {
	c := *r
	if r.Query != nil {
		c.Query = make(url.Values, len(r.Query))
		for k, v := range r.Query {
			c.Query[k] = append([]string(nil), v...)
		}
	}
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = http.Header{}
	}
	return &c
}
