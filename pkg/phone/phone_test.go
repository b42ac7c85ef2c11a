package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLibPhoneNumber_Parse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name     string
		number   string
		valid    bool
		possible bool
		national string
	}{
		{"senegal mobile in international form", "+221781234567", true, true, "781234567"},
		{"senegal mobile in national form", "781234567", true, true, "781234567"},
		{"garbage", "invalid-phone", false, false, ""},
		{"too short", "+2217812", false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := p.Parse(tt.number, "SN")
			assert.Equal(t, tt.valid, n.Valid)
			assert.Equal(t, tt.possible, n.Possible)
			if tt.national != "" {
				assert.Equal(t, tt.national, n.National)
			}
		})
	}
}

func TestParserFunc(t *testing.T) {
	p := ParserFunc(func(number, region string) Number {
		return Number{Valid: true, Possible: true, National: number + region}
	})
	assert.Equal(t, "1SN", p.Parse("1", "SN").National)
}
