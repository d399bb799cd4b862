package models

import "time"

// Типы артефактов CodeBeamer.
const (
	ArtifactTypeDir        = 1
	ArtifactTypeFile       = 2
	ArtifactTypeWikiPage   = 3
	ArtifactTypeAttachment = 4
)

// ArtifactStatusNew статус только что загруженного документа.
const ArtifactStatusNew = 1

// Artifact представляет документ или папку в CodeBeamer
type Artifact struct {
	ID                int                     `json:"id,omitempty"`
	Parent            *Ref                    `json:"parent,omitempty"`
	Project           *Ref                    `json:"project,omitempty"`
	Deleted           bool                    `json:"deleted,omitempty"`
	Name              string                  `json:"name"`
	TypeID            int                     `json:"typeId,omitempty"`
	ScopeName         string                  `json:"scopeName,omitempty"`
	Description       string                  `json:"description,omitempty"`
	DescriptionFormat string                  `json:"descriptionFormat,omitempty"`
	MimeType          string                  `json:"mimeType,omitempty"`
	CreatedAt         *time.Time              `json:"createdAt,omitempty"`
	Owner             *Ref                    `json:"owner,omitempty"`
	Version           *int                    `json:"version,omitempty"`
	FileSize          *int64                  `json:"fileSize,omitempty"`
	Status            *Ref                    `json:"status,omitempty"`
	LastModifiedAt    *time.Time              `json:"lastModifiedAt,omitempty"`
	LastModifiedBy    *Ref                    `json:"lastModifiedBy,omitempty"`
	Comment           string                  `json:"comment,omitempty"`
	Notification      *int                    `json:"notification,omitempty"`
	AdditionalInfo    *ArtifactAdditionalInfo `json:"additionalInfo,omitempty"`
}

// ArtifactAdditionalInfo дополнительные сведения о версии артефакта.
type ArtifactAdditionalInfo struct {
	LockedBy           *Ref `json:"lockedBy,omitempty"`
	PublishedRevision  *int `json:"publishedRevision,omitempty"`
	KeptHistoryEntries *int `json:"keptHistoryEntries,omitempty"`
}

// IsDirectory сообщает, может ли артефакт содержать дочерние артефакты.
func (a Artifact) IsDirectory() bool {
	return a.TypeID == ArtifactTypeDir
}

// Ref возвращает ссылку на артефакт.
func (a Artifact) Ref() *Ref {
	return &Ref{ID: a.ID, Name: a.Name}
}

// BinaryStream содержимое файла, передаваемое удаленному API.
type BinaryStream struct {
	FileName string `json:"fileName,omitempty"`
	Length   int64  `json:"length"`
	Data     []byte `json:"data"`
}

// NewBinaryStream создает поток из набора байт.
func NewBinaryStream(fileName string, data []byte) *BinaryStream {
	return &BinaryStream{
		FileName: fileName,
		Length:   int64(len(data)),
		Data:     data,
	}
}
