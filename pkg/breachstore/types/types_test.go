package types

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{input: "user", want: KindUser},
		{input: "users", want: KindUser},
		{input: "Password", want: KindPassword},
		{input: "emails", want: KindEmail},
		{input: " hash ", want: KindHash},
		{input: "hashes", want: KindHash},
		{input: "phone", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKind) {
					t.Fatalf("ParseKind(%q) error = %v, want ErrInvalidKind", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKindPlural(t *testing.T) {
	want := map[Kind]string{
		KindUser:     "users",
		KindPassword: "passwords",
		KindEmail:    "emails",
		KindHash:     "hashes",
	}
	for k, plural := range want {
		if got := k.Plural(); got != plural {
			t.Errorf("%s.Plural() = %q, want %q", k, got, plural)
		}
	}
}

func TestKindsOrder(t *testing.T) {
	want := []Kind{KindUser, KindPassword, KindEmail, KindHash}
	if len(Kinds) != len(want) {
		t.Fatalf("len(Kinds) = %d, want %d", len(Kinds), len(want))
	}
	for i := range want {
		if Kinds[i] != want[i] {
			t.Errorf("Kinds[%d] = %q, want %q", i, Kinds[i], want[i])
		}
	}
}

func TestNewImportStats(t *testing.T) {
	s := NewImportStats()
	for _, k := range Kinds {
		n, ok := s.PerKind[k]
		if !ok || n != 0 {
			t.Errorf("PerKind[%s] = %d (present=%v), want 0", k, n, ok)
		}
	}
	s.PerKind[KindUser] = 3
	s.PerKind[KindHash] = 2
	if got := s.TotalValues(); got != 5 {
		t.Errorf("TotalValues() = %d, want 5", got)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain bytes", input: "1024", want: 1024},
		{name: "kilobytes", input: "100K", want: 100 * KiB},
		{name: "megabytes with iB", input: "50MiB", want: 50 * MiB},
		{name: "gigabytes lowercase", input: "2g", want: 2 * GiB},
		{name: "decimal", input: "1.5G", want: int64(1.5 * float64(GiB))},
		{name: "whitespace", input: "  100M  ", want: 100 * MiB},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-5M", wantErr: true},
		{name: "garbage", input: "lots", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSize(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatSize(1024); got != "1.0 KiB" {
		t.Errorf("FormatSize(1024) = %q, want %q", got, "1.0 KiB")
	}
	if got := FormatCount(1234567); got != "1,234,567" {
		t.Errorf("FormatCount(1234567) = %q, want %q", got, "1,234,567")
	}
}
