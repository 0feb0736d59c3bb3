package arch

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Arch
		wantErr bool
	}{
		{"x86_64", X86_64, false},
		{"aarch64", Aarch64, false},
		{"riscv64", "", true},
	}

	for _, tt := range tests {
		got, err := Parse(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePlatform(t *testing.T) {
	tests := []struct {
		in   string
		want Arch
	}{
		{"aarch64", Aarch64},
		{"linux/arm64", Aarch64},
		{"linux/amd64", X86_64},
	}

	for _, tt := range tests {
		got, err := ParsePlatform(tt.in)
		if err != nil {
			t.Fatalf("ParsePlatform(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParsePlatform(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestForeign(t *testing.T) {
	if Foreign(Host()) {
		t.Fatal("host architecture should never be foreign to itself")
	}
}

func TestPlatformRoundTrip(t *testing.T) {
	for _, a := range All() {
		p := a.Platform()
		back, err := ParsePlatform(p)
		if err != nil {
			t.Fatalf("ParsePlatform(%q) error = %v", p, err)
		}
		if back != a {
			t.Errorf("round trip %q -> %q -> %q", a, p, back)
		}
	}
}
