package models

// Response es el envelope de todas las respuestas de la API
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// NewSuccessResponse crea una respuesta exitosa con datos
func NewSuccessResponse(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// NewMessageResponse crea una respuesta exitosa con datos y un mensaje
func NewMessageResponse(data interface{}, message string) Response {
	return Response{Success: true, Data: data, Message: message}
}

// NewErrorResponse crea una respuesta de error
func NewErrorResponse(title, message string) Response {
	return Response{Success: false, Error: title, Message: message}
}
