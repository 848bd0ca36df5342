package config

import "strings"

// UploadPolicy - ограничения на загрузку фото профиля
type UploadPolicy struct {
	MaxSize      int64    `yaml:"max_size"`      // Max file size in bytes
	AllowedTypes []string `yaml:"allowed_types"` // Allowed MIME types
}

// DefaultUploadPolicy - 5MB, только изображения
func DefaultUploadPolicy() UploadPolicy {
	return UploadPolicy{
		MaxSize:      5 * 1024 * 1024,
		AllowedTypes: []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
	}
}

func (p *UploadPolicy) applyDefaults() {
	d := DefaultUploadPolicy()
	if p.MaxSize <= 0 {
		p.MaxSize = d.MaxSize
	}
	if len(p.AllowedTypes) == 0 {
		p.AllowedTypes = d.AllowedTypes
	}
}

// Allows проверяет MIME-тип. Параметры вроде "; charset=" отбрасываются.
func (p UploadPolicy) Allows(mimeType string) bool {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, t := range p.AllowedTypes {
		if strings.EqualFold(t, mimeType) {
			return true
		}
	}
	return false
}
