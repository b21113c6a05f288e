package planner

import "testing"

func TestCompactTimestamp(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2015-06-02T23:16:26.709", "20150602T231626Z"},
		{"2015-06-02 21:16:26+00:00", "20150602T211626Z"},
		{"2015-06-02T23:16:26Z", "20150602T231626Z"},
		{"2015-06-02T23:16:26.709Z", "20150602T231626Z"},
	}
	for _, c := range cases {
		if got := CompactTimestamp(c.in); got != c.want {
			t.Errorf("CompactTimestamp(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
