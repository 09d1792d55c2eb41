package model

import "time"

// Attachment - запись о загруженном файле. FilePath хранит только
// сгенерированное имя файла внутри каталога загрузок, FileName - имя,
// под которым файл пришел от клиента.
type Attachment struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"task_id"`
	FileName   string    `json:"file_name"`
	FilePath   string    `json:"file_path"`
	FileSize   int64     `json:"file_size"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
