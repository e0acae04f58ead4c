package scheduler

import (
	"errors"
	"testing"
	"time"
)

// 19 октября 2026 — понедельник.
var monday = time.Date(2026, 10, 19, 9, 1, 0, 0, time.UTC)

func TestNewEvaluator_InvalidTimezone(t *testing.T) {
	if _, err := NewEvaluator("Mars/Olympus"); !errors.Is(err, ErrInvalidTimezone) {
		t.Fatalf("expected ErrInvalidTimezone, got %v", err)
	}
	eval, err := NewEvaluator("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eval.Location() != time.UTC {
		t.Errorf("empty timezone should mean UTC, got %s", eval.Location())
	}
}

func TestEvaluator_RejectsMalformed(t *testing.T) {
	eval := mustEvaluator("UTC")

	inputs := []string{
		"",
		"* * * *",
		"* * * * * *",
		"@daily",
		"@every 5m",
		"CRON_TZ=UTC 0 9 * * *",
		"60 * * * *",
		"0 24 * * *",
		"0 9 32 * *",
		"0 9 * 13 *",
		"0 9 * * 8",
		"a b c d e",
	}

	for _, expr := range inputs {
		if _, err := eval.Parse(expr, monday); !errors.Is(err, ErrInvalidExpression) {
			t.Errorf("Parse(%q): expected ErrInvalidExpression, got %v", expr, err)
		}
	}
}

func TestEvaluator_PrevNextProperties(t *testing.T) {
	eval := mustEvaluator("Europe/Berlin")

	exprs := []string{
		"* * * * *",
		"*/7 * * * *",
		"0 9 * * *",
		"30 7 * * 1",
		"0 17 * * 5",
		"15 8 1,15 * *",
		"0 0 1 * *",
		"0 12 1 * 1",
		"0 0 29 2 *",
		"5 4 * 3 0",
	}
	instants := []time.Time{
		monday,
		time.Date(2026, 3, 29, 1, 30, 0, 0, time.UTC), // переход на летнее время в Берлине
		time.Date(2026, 10, 25, 0, 59, 59, 0, time.UTC),
		time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2028, 2, 29, 23, 59, 0, 0, time.UTC),
	}

	for _, expr := range exprs {
		for _, at := range instants {
			prev, err := eval.PreviousFireBefore(expr, at)
			if err != nil {
				t.Fatalf("PreviousFireBefore(%q, %s): %v", expr, at, err)
			}
			if prev.After(at) {
				t.Errorf("PreviousFireBefore(%q, %s) = %s, must be <= T", expr, at, prev)
			}

			it, err := eval.Parse(expr, at)
			if err != nil {
				t.Fatal(err)
			}
			last := at
			for i := 0; i < 5; i++ {
				next, err := it.Next()
				if err != nil {
					t.Fatalf("Next(%q) #%d: %v", expr, i, err)
				}
				if !next.After(last) {
					t.Errorf("Next(%q) #%d = %s, must be > %s", expr, i, next, last)
				}
				last = next
			}

			// Между prev и T других срабатываний нет.
			after, err := eval.NextFireAfter(expr, prev)
			if err != nil {
				t.Fatal(err)
			}
			if !after.After(at) {
				t.Errorf("%q: fire %s between prev %s and T %s", expr, after, prev, at)
			}
		}
	}
}

func TestIterator_PrevMatchesBruteForce(t *testing.T) {
	eval := mustEvaluator("UTC")

	exprs := []string{"*/13 * * * *", "0 9 * * 1", "45 23 * * *", "0 9 1,15 * *"}
	at := time.Date(2026, 10, 19, 9, 0, 30, 0, time.UTC)

	for _, expr := range exprs {
		// Brute force: идём вперёд от T-40 дней и запоминаем последнее <= T.
		it, _ := eval.Parse(expr, at.AddDate(0, 0, -40))
		var want time.Time
		for {
			next, err := it.Next()
			if err != nil || next.After(at) {
				break
			}
			want = next
		}

		got, err := eval.PreviousFireBefore(expr, at)
		if err != nil {
			t.Fatalf("PreviousFireBefore(%q): %v", expr, err)
		}
		if !got.Equal(want) {
			t.Errorf("PreviousFireBefore(%q) = %s, want %s", expr, got, want)
		}
	}
}

func TestIterator_PrevInclusiveAndWalksBack(t *testing.T) {
	eval := mustEvaluator("UTC")
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	it, _ := eval.Parse("0 9 * * *", at)

	first, err := it.Prev()
	if err != nil {
		t.Fatal(err)
	}
	if !first.Equal(at) {
		t.Errorf("Prev should include the cursor instant, got %s", first)
	}

	second, err := it.Prev()
	if err != nil {
		t.Fatal(err)
	}
	if !second.Equal(at.AddDate(0, 0, -1)) {
		t.Errorf("second Prev should be a day earlier, got %s", second)
	}
}

func TestEvaluator_DomDowOrSemantics(t *testing.T) {
	eval := mustEvaluator("UTC")

	// Только day-of-month: 1 и 15 числа.
	it, _ := eval.Parse("0 9 1,15 * *", time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	wantDays := []int{1, 15, 1, 15}
	wantMonths := []time.Month{10, 10, 11, 11}
	for i := range wantDays {
		next, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		if next.Day() != wantDays[i] || next.Month() != wantMonths[i] || next.Hour() != 9 {
			t.Errorf("biweekly #%d = %s", i, next)
		}
	}

	// Оба поля ограничены: 1-го числа ИЛИ по понедельникам.
	it, _ = eval.Parse("0 9 1 * 1", time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	got := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		next, _ := it.Next()
		got = append(got, next.Day())
	}
	// Понедельник 26.10, 1.11 (воскресенье, но 1-е число), понедельник 2.11.
	want := []int{26, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dom/dow OR: got days %v, want %v", got, want)
		}
	}
}

func TestEvaluator_FixedZone(t *testing.T) {
	eval := mustEvaluator("Europe/Moscow")

	next, err := eval.NextFireAfter("0 9 * * *", time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %s, got %s", want, next.UTC())
	}
	if next.Location() != eval.Location() {
		t.Errorf("result should be in evaluator zone, got %s", next.Location())
	}
}

func TestIterator_Exhausted(t *testing.T) {
	eval := mustEvaluator("UTC")

	// 30 февраля не наступает никогда.
	if _, err := eval.NextFireAfter("0 0 30 2 *", monday); !errors.Is(err, ErrExhausted) {
		t.Errorf("Next: expected ErrExhausted, got %v", err)
	}
	if _, err := eval.PreviousFireBefore("0 0 30 2 *", monday); !errors.Is(err, ErrExhausted) {
		t.Errorf("Prev: expected ErrExhausted, got %v", err)
	}
}

func TestEvaluator_Validate(t *testing.T) {
	eval := mustEvaluator("UTC")
	if err := eval.Validate("0 9 * * 1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := eval.Validate("0 9 * *"); err == nil {
		t.Error("expected error for 4 fields")
	}
}
