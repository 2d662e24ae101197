package course

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Duration estimates assume this many lecture minutes per week of study.
const (
	MinutesPerWeek = 300
	MinWeeks       = 1
	MaxWeeks       = 52
)

type Rating struct {
	UserID string `json:"userId"`
	Rating Number `json:"rating"`
}

type Lecture struct {
	ID       string `json:"lectureId"`
	Title    string `json:"lectureTitle"`
	Duration Number `json:"lectureDuration"`
	Free     bool   `json:"isPreviewFree"`
}

type Chapter struct {
	ID       string    `json:"chapterId"`
	Title    string    `json:"chapterTitle"`
	Lectures []Lecture `json:"chapterContent"`
}

// Summary is a catalog snapshot of one course. It is never patched in place;
// the catalog replaces all summaries on each refresh.
type Summary struct {
	ID         string    `json:"_id"`
	Title      string    `json:"courseTitle"`
	Thumbnail  string    `json:"courseThumbnail,omitempty"`
	Price      Amount    `json:"coursePrice"`
	OfferPrice Amount    `json:"offerPrice"`
	Discount   Amount    `json:"discount"`
	Students   IDList    `json:"enrolledStudents"`
	Published  bool      `json:"isPublished"`
	CreatedAt  time.Time `json:"createdAt"`
	Ratings    []Rating  `json:"courseRatings"`
	Content    []Chapter `json:"courseContent,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// EffectivePrice is the offer price when one is set, otherwise the list price
// less the percentage discount. It is never negative.
func (s Summary) EffectivePrice() decimal.Decimal {
	p := s.OfferPrice.Decimal
	if !p.IsPositive() {
		p = s.Price.Sub(s.Price.Mul(s.Discount.Decimal).Div(hundred))
	}
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

func (s Summary) EnrollmentCount() int { return len(s.Students) }

// AverageRating is the mean of the rating samples rounded to the nearest
// half star. Courses without ratings score 0.
func (s Summary) AverageRating() float64 {
	if len(s.Ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range s.Ratings {
		sum += float64(r.Rating)
	}
	return math.Round(sum/float64(len(s.Ratings))*2) / 2
}

// LectureMinutes sums every lecture duration in the course content.
func (s Summary) LectureMinutes() float64 {
	var total float64
	for _, ch := range s.Content {
		for _, l := range ch.Lectures {
			if l.Duration > 0 {
				total += float64(l.Duration)
			}
		}
	}
	return total
}

// DurationWeeks is the study time estimate shown on course cards, between
// MinWeeks and MaxWeeks.
func (s Summary) DurationWeeks() int {
	w := int(math.Ceil(s.LectureMinutes() / MinutesPerWeek))
	if w < MinWeeks {
		return MinWeeks
	}
	if w > MaxWeeks {
		return MaxWeeks
	}
	return w
}

// Availability marks placeholder details substituted when a course could
// not be loaded.
type Availability string

const (
	Available   Availability = ""
	Removed     Availability = "removed"
	Unreachable Availability = "unreachable"
)

const (
	TitleNotFound    = "Course Not Found"
	TitleUnavailable = "Course Unavailable"
)

type Detail struct {
	Summary
	Description  string       `json:"courseDescription,omitempty"`
	Availability Availability `json:"availability,omitempty"`
}

// Placeholder stands in for a course that is gone (Removed) or could not be
// reached (Unreachable). price is what the purchase recorded.
func Placeholder(id string, price decimal.Decimal, a Availability) Detail {
	title := TitleUnavailable
	if a == Removed {
		title = TitleNotFound
	}
	return Detail{
		Summary: Summary{
			ID:    id,
			Title: title,
			Price: Amount{price},
		},
		Availability: a,
	}
}

type Category struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	Courses     []Summary `json:"courses,omitempty"`
}
