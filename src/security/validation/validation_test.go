package validation

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/username/dealfolio/backend/src/logger"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "123 Main St", "123 Main St"},
		{"equals formula", "=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"plus prefix", "+1 555 0100", "'+1 555 0100"},
		{"minus prefix", "-discount applied", "'-discount applied"},
		{"at prefix", "@cmd", "'@cmd"},
		{"leading whitespace then formula", "  =1+1", "'  =1+1"},
		{"empty string", "", ""},
		{"only whitespace", "   ", "   "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForFormulaInjection(tt.input); got != tt.want {
				t.Errorf("SanitizeForFormulaInjection(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripUnprintable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean string", "Jane Buyer", "Jane Buyer"},
		{"null byte removed", "abc\x00def", "abcdef"},
		{"escape removed", "abc\x1bdef", "abcdef"},
		{"keeps tab newline", "a\tb\nc", "a\tb\nc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripUnprintable(tt.input); got != tt.want {
				t.Errorf("StripUnprintable(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateAnchorDate(t *testing.T) {
	valid := []string{"01-01", "03-15", "12-31", "2024-03-15"}
	for _, anchor := range valid {
		if err := ValidateAnchorDate(anchor); err != nil {
			t.Errorf("ValidateAnchorDate(%q) unexpected error: %v", anchor, err)
		}
	}
	invalid := []string{"", "13-01", "March 15", "15/03", "03-32"}
	for _, anchor := range invalid {
		if err := ValidateAnchorDate(anchor); err == nil {
			t.Errorf("ValidateAnchorDate(%q) expected error, got nil", anchor)
		}
	}
}

func TestValidateISODate(t *testing.T) {
	if err := ValidateISODate("2025-06-15"); err != nil {
		t.Errorf("unexpected error for valid date: %v", err)
	}
	for _, date := range []string{"", "06/15/2025", "2025-13-01", "not a date"} {
		if err := ValidateISODate(date); err == nil {
			t.Errorf("ValidateISODate(%q) expected error, got nil", date)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type sample struct {
		Name    string  `validate:"required,max=10"`
		Percent float64 `validate:"gte=0,lte=100"`
	}

	if err := ValidateStruct(sample{Name: "ok", Percent: 50}); err != nil {
		t.Errorf("unexpected error for valid struct: %v", err)
	}

	err := ValidateStruct(sample{Name: "", Percent: 150})
	if err == nil {
		t.Fatal("expected error for invalid struct")
	}
	if !strings.Contains(err.Error(), "Name") || !strings.Contains(err.Error(), "Percent") {
		t.Errorf("error should name both failing fields, got: %v", err)
	}
}

func TestValidateReceiptContentType(t *testing.T) {
	for _, ct := range []string{"image/jpeg", "image/png", "application/pdf", "image/PNG", "image/jpeg; charset=binary"} {
		if err := ValidateReceiptContentType(ct); err != nil {
			t.Errorf("ValidateReceiptContentType(%q) unexpected error: %v", ct, err)
		}
	}
	for _, ct := range []string{"text/csv", "text/html", "application/x-msdownload", ""} {
		if err := ValidateReceiptContentType(ct); err == nil {
			t.Errorf("ValidateReceiptContentType(%q) expected error, got nil", ct)
		}
	}
}

func TestValidateReceiptContentByMagicBytes(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13}
	jpegHeader := []byte{0xff, 0xd8, 0xff, 0xe0, 0, 0x10, 'J', 'F', 'I', 'F'}
	pdfHeader := []byte("%PDF-1.7\n%binary")

	tests := []struct {
		name    string
		content []byte
		want    string
		wantErr bool
	}{
		{"png", pngHeader, "image/png", false},
		{"jpeg", jpegHeader, "image/jpeg", false},
		{"pdf", pdfHeader, "application/pdf", false},
		{"plain text rejected", []byte("close_date,amount\n2025-01-01,100"), "", true},
		{"html rejected", []byte("<html><body>x</body></html>"), "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bytes.NewReader(tt.content)
			got, err := ValidateReceiptContentByMagicBytes(reader)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got type %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("detected type = %q, want %q", got, tt.want)
			}
			// The reader must be rewound for the subsequent store.
			if pos, _ := reader.Seek(0, 1); pos != 0 {
				t.Errorf("read position after validation = %d, want 0", pos)
			}
		})
	}
}
