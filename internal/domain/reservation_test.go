package domain_test

import (
	"errors"
	"testing"
	"time"

	"hotel_reservations/internal/domain"
)

func day(n int) time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n) }

// threeCase is the case split used by the booking query: the new stay starts
// inside an existing one, ends inside it, or contains it.
func threeCase(newStay, existing domain.Stay) bool {
	startsInside := !existing.CheckIn.After(newStay.CheckIn) && existing.CheckOut.After(newStay.CheckIn)
	endsInside := existing.CheckIn.Before(newStay.CheckOut) && !existing.CheckOut.Before(newStay.CheckOut)
	contained := !existing.CheckIn.Before(newStay.CheckIn) && !existing.CheckOut.After(newStay.CheckOut)
	return startsInside || endsInside || contained
}

func TestStayOverlaps_MatchesThreeCaseForm(t *testing.T) {
	const span = 9
	for a1 := 0; a1 < span; a1++ {
		for a2 := a1 + 1; a2 <= span; a2++ {
			for b1 := 0; b1 < span; b1++ {
				for b2 := b1 + 1; b2 <= span; b2++ {
					a := domain.NewStay(day(a1), day(a2))
					b := domain.NewStay(day(b1), day(b2))
					if got, want := a.Overlaps(b), threeCase(a, b); got != want {
						t.Fatalf("[%d,%d) vs [%d,%d): Overlaps=%v threeCase=%v", a1, a2, b1, b2, got, want)
					}
					if a.Overlaps(b) != b.Overlaps(a) {
						t.Fatalf("[%d,%d) vs [%d,%d): not symmetric", a1, a2, b1, b2)
					}
				}
			}
		}
	}
}

func TestStayOverlaps_Scenarios(t *testing.T) {
	booked := domain.NewStay(day(0), day(4)) // 06-01 .. 06-05
	cases := []struct {
		name string
		stay domain.Stay
		want bool
	}{
		{"inside", domain.NewStay(day(1), day(3)), true},
		{"straddles end", domain.NewStay(day(2), day(6)), true},
		{"straddles start", domain.NewStay(day(-2), day(1)), true},
		{"contains", domain.NewStay(day(-1), day(6)), true},
		{"identical", domain.NewStay(day(0), day(4)), true},
		{"touches end", domain.NewStay(day(4), day(7)), false},
		{"touches start", domain.NewStay(day(-3), day(0)), false},
		{"disjoint", domain.NewStay(day(10), day(12)), false},
	}
	for _, tc := range cases {
		if got := booked.Overlaps(tc.stay); got != tc.want {
			t.Errorf("%s: got %v want %v", tc.name, got, tc.want)
		}
	}
}

func TestStayValidAndNights(t *testing.T) {
	if domain.NewStay(day(3), day(3)).Valid() {
		t.Fatal("zero-night stay must be invalid")
	}
	if domain.NewStay(day(4), day(3)).Valid() {
		t.Fatal("reversed stay must be invalid")
	}
	s := domain.NewStay(day(0), day(4))
	if !s.Valid() || s.Nights() != 4 {
		t.Fatalf("unexpected stay: valid=%v nights=%d", s.Valid(), s.Nights())
	}
}

func TestParseDate(t *testing.T) {
	got, err := domain.ParseDate("2024-06-01")
	if err != nil || !got.Equal(day(0)) {
		t.Fatalf("date-only: %v %v", got, err)
	}
	got, err = domain.ParseDate("2024-06-01T22:30:00-05:00")
	if err != nil || !got.Equal(day(0)) {
		t.Fatalf("rfc3339 keeps the written date: %v %v", got, err)
	}
	if _, err := domain.ParseDate("01/06/2024"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := domain.Errorf(domain.ErrCapacityExceeded, "room capacity (%d) is below requested guests (%d)", 2, 3)
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatal("expected errors.Is to match sentinel")
	}
	if errors.Is(err, domain.ErrDateConflict) {
		t.Fatal("unexpected match on another code")
	}
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("kind = %v", domain.KindOf(err))
	}
	if domain.KindOf(errors.New("boom")) != domain.KindInternal {
		t.Fatal("unclassified errors are internal")
	}
	wrapped := domain.Internal("list rooms", errors.New("conn reset"))
	if wrapped.Error() != "list rooms: conn reset" || domain.KindOf(wrapped) != domain.KindInternal {
		t.Fatalf("internal: %v", wrapped)
	}
}
