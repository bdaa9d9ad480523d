// Package apperror berisi taksonomi error domain dan pemetaannya ke HTTP.
package apperror

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors, cek dengan errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientPoints = errors.New("insufficient points")
	ErrAlreadyProcessed   = errors.New("payment already processed")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

type NotFoundError struct {
	Entity string
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v tidak ditemukan", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func NotFound(entity string, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// UnavailableUnitError: kambing tidak dalam status yang dibutuhkan transaksi.
type UnavailableUnitError struct {
	GoatID uint
	Code   string
	Status string
}

func (e *UnavailableUnitError) Error() string {
	return fmt.Sprintf("Kambing %s tidak tersedia (status: %s)", e.Code, e.Status)
}

func (e *UnavailableUnitError) Unwrap() error { return ErrConflict }

type InsufficientPointsError struct {
	Available int
	Requested int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("Poin tidak mencukupi (tersedia %d, diminta %d)", e.Available, e.Requested)
}

func (e *InsufficientPointsError) Unwrap() []error {
	return []error{ErrInsufficientPoints, ErrConflict}
}

type AlreadyProcessedError struct {
	PaymentID uint
	Status    string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("Pembayaran sudah diproses sebelumnya (status: %s)", e.Status)
}

func (e *AlreadyProcessedError) Unwrap() []error {
	return []error{ErrAlreadyProcessed, ErrConflict}
}

// Status memetakan error domain ke kode HTTP.
func Status(err error) int {
	var unavailable *UnavailableUnitError
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientPoints),
		errors.Is(err, ErrAlreadyProcessed):
		return fiber.StatusBadRequest
	case errors.As(err, &unavailable), errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	}
	return fiber.StatusInternalServerError
}

// Kind adalah label pendek yang ikut dikirim di body error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, ErrAlreadyProcessed):
		return "already_processed"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	}
	return "internal"
}

// ErrorHandler dipasang di fiber.Config. *fiber.Error dari handler dikirim
// apa adanya, error domain dipetakan lewat Status, sisanya dicatat dan
// pesannya disamarkan.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"error":   kindForStatus(fe.Code),
			"message": fe.Message,
		})
	}

	code := Status(err)
	msg := err.Error()
	if code == fiber.StatusInternalServerError {
		log.Printf("[error] %s %s: %v", c.Method(), c.Path(), err)
		msg = "Terjadi kesalahan pada server"
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   Kind(err),
		"message": msg,
	})
}

func kindForStatus(code int) string {
	switch code {
	case fiber.StatusBadRequest:
		return "validation"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusConflict:
		return "conflict"
	case fiber.StatusRequestEntityTooLarge:
		return "too_large"
	}
	if code >= 500 {
		return "internal"
	}
	return "error"
}
