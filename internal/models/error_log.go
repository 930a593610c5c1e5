package models

// ErrorLogModel records a failed generation attempt. Rows are append-only.
type ErrorLogModel struct {
	Base
	UserID       string  `json:"user_id"       gorm:"type:char(36);not null;index"`
	Model        string  `json:"model"         gorm:"size:100;not null"`
	ErrorType    string  `json:"error_type"    gorm:"size:64;not null;index"`
	ErrorMessage string  `json:"error_message" gorm:"type:text;not null"`
	InputPayload JSONMap `json:"input_payload" gorm:"type:text"`
}

func (ErrorLogModel) TableName() string { return "error_logs" }
