package rating

import (
	"github.com/shopspring/decimal"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Aggregate is the derived rating state stored on a book.
type Aggregate struct {
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}

// Compute returns the count of ratings and their mean rounded half away from
// zero to one decimal place. No ratings yields the zero Aggregate.
func Compute(ratings []int) Aggregate {
	if len(ratings) == 0 {
		return Aggregate{}
	}

	sum := decimal.Zero
	for _, r := range ratings {
		sum = sum.Add(decimal.NewFromInt(int64(r)))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(ratings)))).Round(1)
	avg, _ := mean.Float64()

	return Aggregate{AverageRating: avg, TotalReviews: len(ratings)}
}

// Distribution counts ratings per star value. Every star from MinRating to
// MaxRating is present in the result; out of range values are ignored.
func Distribution(ratings []int) map[int]int {
	out := make(map[int]int, MaxRating)
	for star := MinRating; star <= MaxRating; star++ {
		out[star] = 0
	}
	for _, r := range ratings {
		if r >= MinRating && r <= MaxRating {
			out[r]++
		}
	}
	return out
}

// Summary is the public view of a book's rating: the stored aggregate plus
// a live star distribution.
type Summary struct {
	BookID string `json:"book_id"`
	Aggregate
	Distribution map[int]int `json:"distribution"`
}
