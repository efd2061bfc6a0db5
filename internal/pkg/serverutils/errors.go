package serverutils

import "github.com/gofiber/fiber/v2"

// AppError carries an HTTP status out of the service layer.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Code: fiber.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: fiber.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: fiber.StatusConflict, Message: message}
}

func NewUnprocessableError(message string, err error) *AppError {
	return &AppError{Code: fiber.StatusUnprocessableEntity, Message: message, Err: err}
}

func NewBadGatewayError(message string, err error) *AppError {
	return &AppError{Code: fiber.StatusBadGateway, Message: message, Err: err}
}
