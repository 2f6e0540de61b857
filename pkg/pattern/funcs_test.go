package pattern

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestTransform(t *testing.T) {
	upperCase := Transform(strings.ToUpper)

	result, err := upperCase(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if result != "HELLO" {
		t.Errorf("Expected 'HELLO', got '%s'", result)
	}
}

func TestTryTransform(t *testing.T) {
	parseInt := TryTransform(strconv.Atoi)
	ctx := context.Background()

	result, err := parseInt(ctx, "123")
	if err != nil {
		t.Fatalf("TryTransform failed: %v", err)
	}
	if result != 123 {
		t.Errorf("Expected 123, got %d", result)
	}

	if _, err = parseInt(ctx, "abc"); err == nil {
		t.Error("Expected error for invalid input")
	}
}

func TestCompose(t *testing.T) {
	parseThenDouble := Compose(TryTransform(strconv.Atoi), Transform(double))
	ctx := context.Background()

	result, err := parseThenDouble(ctx, "21")
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if result != 42 {
		t.Errorf("Expected 42, got %d", result)
	}

	// the second step must not run after a failure
	called := false
	guarded := Compose(TryTransform(strconv.Atoi), Transform(func(x int) int {
		called = true
		return x
	}))
	if _, err := guarded(ctx, "x"); err == nil {
		t.Error("Expected error from the first step")
	}
	if called {
		t.Error("Second step ran after the first one failed")
	}
}

func TestHandleErrors(t *testing.T) {
	failing := TryTransform(func(s string) (int, error) {
		return -1, errors.New("always fails")
	})
	ctx := context.Background()

	ignored := HandleErrors(failing, func(error) error { return nil })
	result, err := ignored(ctx, "x")
	if err != nil {
		t.Fatalf("Expected error to be suppressed, got %v", err)
	}
	if result != -1 {
		t.Errorf("Expected result to pass through, got %d", result)
	}

	wrapped := errors.New("wrapped")
	replaced := HandleErrors(failing, func(err error) error { return wrapped })
	if _, err := replaced(ctx, "x"); !errors.Is(err, wrapped) {
		t.Errorf("Expected replaced error, got %v", err)
	}
}

func TestTap(t *testing.T) {
	var observed []string
	tapped := Tap(Transform(strings.ToUpper), func(s string) {
		observed = append(observed, s)
	})
	ctx := context.Background()

	for _, s := range []string{"a", "b"} {
		if _, err := tapped(ctx, s); err != nil {
			t.Fatalf("Tap failed: %v", err)
		}
	}
	if strings.Join(observed, ",") != "A,B" {
		t.Errorf("Expected observer to see A,B, got %v", observed)
	}
}

func TestAdapters(t *testing.T) {
	ctx := context.Background()

	keep, err := Where(even)(ctx, 4)
	if err != nil || !keep {
		t.Errorf("Expected Where to accept 4, got %v, %v", keep, err)
	}

	var sum int
	if err := Each(func(x int) { sum += x })(ctx, 5); err != nil || sum != 5 {
		t.Errorf("Expected Each to consume 5, got %d, %v", sum, err)
	}

	acc, err := Combine(func(next, acc string) string { return acc + next })("b", "a")
	if err != nil || acc != "ab" {
		t.Errorf("Expected Combine to append next to accumulated, got %q, %v", acc, err)
	}
}
