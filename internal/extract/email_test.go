package extract

import "testing"

func TestEmail_PatternPriority(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{
			"mailto wins over bare address",
			`<a href="mailto:office@school.kerala.gov.in">contact</a> other@spam.example`,
			"office@school.kerala.gov.in",
		},
		{
			"labelled email",
			`<p>Email : Admin@School.Edu.In</p>`,
			"admin@school.edu.in",
		},
		{
			"bare address",
			`<p>reach us at ghs123@gmail.com for admissions</p>`,
			"ghs123@gmail.com",
		},
		{
			"obfuscated address",
			`<p>principal [at] school [dot] in</p>`,
			"principal@school.in",
		},
		{
			"nothing",
			`<p>no contact information listed</p>`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Email(tt.markup); got != tt.want {
				t.Errorf("Email() = %q, want %q", got, tt.want)
			}
		})
	}
}
