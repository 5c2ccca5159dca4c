package inputval

import "testing"

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2024-07-01", true},
		{"2024-02-29", true},
		{" 2024-07-01 ", true},

		{"", false},
		{"2023-02-29", false},
		{"2024-7-1", false},
		{"07/01/2024", false},
		{"2024-07-01T00:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := IsValidDate(tt.date); got != tt.want {
				t.Errorf("IsValidDate(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestIsValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f", true},
		{"  6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f  ", true},

		{"", false},
		{"not-an-id", false},
		{"6f1c2d3e4a5b", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidID(tt.id); got != tt.want {
				t.Errorf("IsValidID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type TestInput struct {
		Name  string `validate:"required,max=10" label:"Full name"`
		Email string `validate:"required,email" label:"Email address"`
	}

	tests := []struct {
		name       string
		input      TestInput
		wantErrors bool
		wantFirst  string
	}{
		{
			name:  "valid input",
			input: TestInput{Name: "John", Email: "john@example.com"},
		},
		{
			name:       "missing name",
			input:      TestInput{Name: "", Email: "john@example.com"},
			wantErrors: true,
			wantFirst:  "Full name is required.",
		},
		{
			name:       "whitespace name",
			input:      TestInput{Name: "   ", Email: "john@example.com"},
			wantErrors: true,
			wantFirst:  "Full name is required.",
		},
		{
			name:       "name too long",
			input:      TestInput{Name: "VeryLongNameThatExceedsLimit", Email: "john@example.com"},
			wantErrors: true,
			wantFirst:  "Full name must be at most 10 characters.",
		},
		{
			name:       "invalid email",
			input:      TestInput{Name: "John", Email: "not-an-email"},
			wantErrors: true,
			wantFirst:  "A valid email address is required.",
		},
		{
			name:       "missing both",
			input:      TestInput{},
			wantErrors: true,
			wantFirst:  "Full name is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.input)

			if result.HasErrors() != tt.wantErrors {
				t.Errorf("Validate() HasErrors = %v, want %v", result.HasErrors(), tt.wantErrors)
			}
			if tt.wantErrors && result.First() != tt.wantFirst {
				t.Errorf("Validate() First() = %q, want %q", result.First(), tt.wantFirst)
			}
		})
	}
}

func TestValidate_MissingBothReportsEachField(t *testing.T) {
	type TestInput struct {
		Name  string `validate:"required" label:"Name"`
		Email string `validate:"required,email" label:"Email"`
	}
	result := Validate(&TestInput{})
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %d, want 2", len(result.Errors))
	}
	if result.Errors[1].Field != "Email" || result.Errors[1].Rule != "required" {
		t.Errorf("second error = %+v", result.Errors[1])
	}
}

func TestValidate_OptionalFieldsSkipRules(t *testing.T) {
	type TestInput struct {
		Date string `validate:"date" label:"Date"`
	}
	if r := Validate(TestInput{}); r.HasErrors() {
		t.Errorf("empty optional date: %v", r.Errors)
	}
	if r := Validate(TestInput{Date: "tomorrow"}); r.First() != "Date must be a YYYY-MM-DD date." {
		t.Errorf("First() = %q", r.First())
	}
}

func TestValidate_CustomRules(t *testing.T) {
	type SwapInput struct {
		First  string `validate:"required,uuid" label:"Original record"`
		Second string `validate:"required,uuid" label:"Target record"`
	}
	type SinkInput struct {
		Mode string `validate:"oneof=all db log off" label:"Audit mode"`
	}

	t.Run("valid ids", func(t *testing.T) {
		r := Validate(SwapInput{
			First:  "6f1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f",
			Second: "0b1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f",
		})
		if r.HasErrors() {
			t.Errorf("unexpected errors: %v", r.Errors)
		}
	})

	t.Run("invalid id", func(t *testing.T) {
		r := Validate(SwapInput{First: "abc", Second: "0b1c2d3e-4a5b-4c6d-8e7f-9a0b1c2d3e4f"})
		if r.First() != "Original record must be a valid id." {
			t.Errorf("First() = %q", r.First())
		}
	})

	t.Run("oneof", func(t *testing.T) {
		if r := Validate(SinkInput{Mode: "db"}); r.HasErrors() {
			t.Errorf("db rejected: %v", r.Errors)
		}
		if r := Validate(SinkInput{Mode: "verbose"}); r.First() != "Audit mode must be one of: all, db, log, off." {
			t.Errorf("First() = %q", r.First())
		}
	})

	t.Run("non-struct", func(t *testing.T) {
		if r := Validate("x"); r.HasErrors() {
			t.Error("non-struct should validate clean")
		}
	})
}

func TestResult_All(t *testing.T) {
	t.Run("no errors", func(t *testing.T) {
		r := &Result{}
		if r.All() != "" {
			t.Errorf("All() = %q, want empty", r.All())
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		r := &Result{
			Errors: []FieldError{
				{Message: "Error 1"},
				{Message: "Error 2"},
			},
		}
		want := "Error 1; Error 2"
		if r.All() != want {
			t.Errorf("All() = %q, want %q", r.All(), want)
		}
	})
}
