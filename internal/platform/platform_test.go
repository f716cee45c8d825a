package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	cases := []struct {
		name string
		want Platform
	}{
		{"another", Amiga},
		{"START.PRG", AtariST},
		{"", PC},
	}
	for _, c := range cases {
		dir := t.TempDir()
		if c.name != "" {
			if err := os.WriteFile(filepath.Join(dir, c.name), []byte{0}, 0o644); err != nil {
				t.Fatalf("setup: %v", err)
			}
		}
		if got := Detect(dir); got != c.want {
			t.Errorf("Detect(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestBankFilename(t *testing.T) {
	cases := []struct {
		p    Platform
		id   uint8
		want string
	}{
		{PC, 0x0a, "Bank0a"},
		{Amiga, 0x0a, "bank0A"},
		{AtariST, 0x0a, "BANK0A"},
	}
	for _, c := range cases {
		if got := BankFilename(c.p, c.id); got != c.want {
			t.Errorf("BankFilename(%v, %#x) = %q, want %q", c.p, c.id, got, c.want)
		}
	}
}
