package data

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func InitValidator() {
	validateOnce.Do(func() {
		v := validator.New()
		if err := v.RegisterValidation("snowflake", validateSnowflake); err != nil {
			panic(fmt.Sprintf("Failed to register validation: %v", err))
		}
		validate = v
	})
}

func GetValidator() *validator.Validate {
	InitValidator()
	return validate
}

// discord ids are unsigned 64-bit integers rendered in decimal
func validateSnowflake(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// a discord server that has opted into the guild economy
type Guild struct {
	ID           string    `firestore:"id" validate:"required,snowflake"`
	Name         string    `firestore:"name"`
	RegisteredAt time.Time `firestore:"registered_at"`
}

// one tracked guild member
type Member struct {
	UserID     string    `firestore:"user_id" validate:"required,snowflake"`
	Balance    int64     `firestore:"balance" validate:"min=0"`
	Attendance int64     `firestore:"attendance" validate:"min=0"`
	Seq        int64     `firestore:"seq"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

type UserBalance struct {
	UserID  string
	Balance int64
}

type UserAttendance struct {
	UserID     string
	Attendance int64
}
