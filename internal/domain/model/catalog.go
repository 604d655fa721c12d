package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Program struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Subjects    []Subject `json:"subjects,omitempty"`
}

type Subject struct {
	ID            string              `json:"id"`
	ProgramID     string              `json:"program_id"`
	Name          string              `json:"name"`
	Slug          string              `json:"slug"`
	Description   string              `json:"description"`
	ImageURL      string              `json:"image_url"`
	Price         decimal.Decimal     `json:"price"`
	DiscountPrice decimal.NullDecimal `json:"discount_price"`
	IsPopular     bool                `json:"is_popular"`
}

// EffectivePrice is the discount price when one is set, else the list price.
func (s *Subject) EffectivePrice() decimal.Decimal {
	if s.DiscountPrice.Valid {
		return s.DiscountPrice.Decimal
	}
	return s.Price
}

func (s *Subject) IsFree() bool {
	return !s.EffectivePrice().IsPositive()
}

// AmountMinor converts the effective price to minor currency units.
func (s *Subject) AmountMinor() int64 {
	return s.EffectivePrice().Shift(2).Round(0).IntPart()
}

type Topic struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	VideoID   string `json:"video_id"`
	SortOrder int    `json:"sort_order"`
}

type Enrollment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SubjectID  string    `json:"subject_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

var youtubeID = regexp.MustCompile(`(?:youtube\.com/(?:[^/]+/.+/|(?:v|e(?:mbed)?)/|.*[?&]v=)|youtu\.be/)([^"&?/\s]{11})`)

// ExtractVideoID pulls the 11 character id out of a YouTube URL. Input that
// does not look like a YouTube URL is returned trimmed, as it may already be an id.
func ExtractVideoID(raw string) string {
	if m := youtubeID.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return strings.TrimSpace(raw)
}

// CompletionPercent is the integer share of done out of total, 0 when total is 0.
func CompletionPercent(done, total int) int {
	if total == 0 {
		return 0
	}
	return done * 100 / total
}
