package reader

import "testing"

func TestStripHTML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  string
	}{
		{
			input: `<p>Council <b>approves</b> lane</p><script>var x=1;</script><p>Read&nbsp;more &amp; share</p>`,
			want:  "Council approves lane Read more & share",
		},
		{input: "  plain \n text ", want: "plain text"},
		{input: "   ", want: ""},
		{input: "<style>p{color:red}</style>Beach", want: "Beach"},
	}
	for _, tc := range cases {
		if got := StripHTML(tc.input); got != tc.want {
			t.Fatalf("StripHTML(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
