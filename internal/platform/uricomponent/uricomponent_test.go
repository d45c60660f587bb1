package uricomponent_test

import (
	"testing"

	"clubsignup/internal/platform/uricomponent"
)

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Chess Club", want: "Chess%20Club"},
		{in: "john.doe+test@mergington.edu", want: "john.doe%2Btest%40mergington.edu"},
		{in: "Art/Craft & More?", want: "Art%2FCraft%20%26%20More%3F"},
		{in: "Café", want: "Caf%C3%A9"},
		{in: "Rock 'n' Roll (Club)!", want: "Rock%20'n'%20Roll%20(Club)!"},
		{in: "a*b~c-d_e.f", want: "a*b~c-d_e.f"},
		{in: "100%", want: "100%25"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := uricomponent.Encode(tt.in)
			if got != tt.want {
				t.Errorf("Encode(%q) = %q, want %q", tt.in, got, tt.want)
			}
			back, err := uricomponent.Decode(got)
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", got, err)
			}
			if back != tt.in {
				t.Errorf("Decode(Encode(%q)) = %q", tt.in, back)
			}
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := uricomponent.Decode("%zz"); err == nil {
		t.Error("Decode(%zz) should fail")
	}
}
