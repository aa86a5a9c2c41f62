package sanitizer

import "testing"

func mustCompileDefault(t *testing.T) *compiledTables {
	t.Helper()
	c, err := DefaultTables().compile()
	if err != nil {
		t.Fatalf("compiling default tables: %v", err)
	}
	return c
}

func TestMatchTag(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   tagMatch
		wantOK bool
	}{
		{
			name:   "simple",
			input:  `<a href="x">`,
			want:   tagMatch{start: 0, end: 12, name: "a", attrs: ` href="x"`, inner: `a href="x"`, closed: true},
			wantOK: true,
		},
		{
			name:   "closing with space",
			input:  `</ b>`,
			want:   tagMatch{start: 0, end: 5, slash: "/ ", name: "b", inner: "/ b", closed: true},
			wantOK: true,
		},
		{
			name:   "unclosed",
			input:  `<script src=x`,
			want:   tagMatch{start: 0, end: 13, name: "script", attrs: " src=x", inner: "script src=x"},
			wantOK: true,
		},
		{
			name:   "quoted value holds bracket",
			input:  `<a title="x>y">z`,
			want:   tagMatch{start: 0, end: 15, name: "a", attrs: ` title="x>y"`, inner: `a title="x>y"`, closed: true},
			wantOK: true,
		},
		{
			name:   "self closing",
			input:  `<br/>`,
			want:   tagMatch{start: 0, end: 5, name: "br", attrs: "", inner: "br/", closed: true},
			wantOK: true,
		},
		{
			name:   "glued punctuation",
			input:  `<a!href=x>`,
			want:   tagMatch{start: 0, end: 10, name: "a", attrs: "href=x", inner: "a!href=x", closed: true},
			wantOK: true,
		},
		{
			name:   "space before name",
			input:  "< b>",
			want:   tagMatch{start: 0, end: 4, slash: " ", name: "b", inner: " b", closed: true},
			wantOK: true,
		},
		{name: "no name", input: "<!-- x", wantOK: false},
		{name: "empty", input: "<>", wantOK: false},
		{name: "lone bracket", input: "<", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := matchTag(tt.input, 0)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("match = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSanitizeTags(t *testing.T) {
	c := mustCompileDefault(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"benign kept", "<b>bold</b>", "<b>bold</b>"},
		{"naughty escaped", `<iframe src="x">y</iframe>`, `&lt;iframe src="x"&gt;y&lt;/iframe&gt;`},
		{"naughty uppercase", "<SVG>", "&lt;SVG&gt;"},
		{"unclosed escaped", "<script", "&lt;script"},
		{"event handler", `<a href="x" onclick="y">`, `<a href="x" xss=removed>`},
		{"evil name case-insensitive", `<p STYLE="color:red">`, `<p xss=removed>`},
		{"blank unquoted value", `<a href= >`, `<a xss=removed>`},
		{"empty quotes kept", `<a title=''>`, `<a title=''>`},
		{"valueless attribute dropped", `<div data-x=1 hidden>`, `<div data-x=1>`},
		{"glued punctuation", `<a!href="x">`, `<a href="x">`},
		{"self closing", "<br/>", "<br>"},
		{"less-than before digit", "1 < 2", "1 &lt; 2"},
		{"less-than before symbol", "a <= b", "a <= b"},
		{"nested bracket swallowed", "<b <i>", "<b>"},
		{"bracket after attribute swallowed", `<b x="1" <i>`, `<b x="1">`},
		{"tie-break naughty wins", `<form action="x">`, `&lt;form action="x"&gt;`},
		{"naughty quoted bracket", `<iframe a="0>0">`, `&lt;iframe a="0&gt;0"&gt;`},
		{"naughty quoted backslash", `<iframe a="\">`, `&lt;iframe a="&#92;"&gt;`},
		{"unclosed quoted bracket", `<iframe b="0x>0"00`, `&lt;iframe b="0x&gt;0"00`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fixpoint(tt.input, DefaultMaxPasses, c.sanitizeTags)
			if got != tt.want {
				t.Errorf("sanitizeTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterTagAttributes(t *testing.T) {
	c := mustCompileDefault(t)

	got := c.filterTagAttributes(` href="a" onload=x  title = "t" ;; xlink:href="j"`)
	want := []string{`href="a"`, "xss=removed", `title = "t"`, "xss=removed"}
	if len(got) != len(want) {
		t.Fatalf("attributes = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("attribute %d = %q, want %q", i, got[i], want[i])
		}
	}
}
