package sanitizer

import "testing"

func TestNeverAllowed(t *testing.T) {
	c := mustCompileDefault(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"cookie", "x document.cookie y", "x [removed] y"},
		{"comment", "<!-- c -->", "&lt;!-- c --&gt;"},
		{"cdata", "<![CDATA[x]]>", "&lt;![CDATA[x]]>"},
		{"asp tag", "<% x %>", "&lt;&#37; x %>"},
		{"javascript scheme", "JavaScript :go", "[removed]go"},
		{"window location", "window.location='x'", "[removed]='x'"},
		{"event property", "document.onload", "[removed]"},
		{"css expression", "expression(x)", "[removed]x)"},
		{"redirect", "Redirect 302", "[removed]"},
		{"data uri", `src="data:text/html;base64,PHg+"`, "src=[removed]PHg+\""},
		{"clean", "nothing to see", "nothing to see"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.neverAllowed(tt.input); got != tt.want {
				t.Errorf("neverAllowed(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEscapeInstructions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<?php echo 1; ?>", "&lt;?php echo 1; ?&gt;"},
		{"<?PHP", "&lt;?PHP"},
		{"<?xml version=1?>", "&lt;?xml version=1?&gt;"},
		{"why?", "why?"},
		{"<?>", "&lt;?&gt;"},
		{"<??>", "&lt;??&gt;"},
	}

	for _, tt := range tests {
		if got := escapeInstructions(tt.input); got != tt.want {
			t.Errorf("escapeInstructions(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCompactWords(t *testing.T) {
	c := mustCompileDefault(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaced scheme", "j a v a s c r i p t:", "javascript:"},
		{"newlines and tabs", "e\nv\ta l(1)", "eval(1)"},
		{"mixed case", "D o C u M e N t.x", "DoCuMeNt.x"},
		{"needs trailing non-word", "w r i t e", "w r i t e"},
		{"ordinary prose", "a real test", "a real test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.compactWords(tt.input, DefaultMaxPasses); got != tt.want {
				t.Errorf("compactWords(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDefangCalls(t *testing.T) {
	c := mustCompileDefault(t)

	tests := []struct {
		input string
		want  string
	}{
		{"eval('x')", "eval&#40;'x'&#41;"},
		{"system ( 'ls' )", "system &#40; 'ls' &#41;"},
		{"ALERT(1)", "ALERT&#40;1&#41;"},
		{"print('ok')", "print('ok')"},
		{"eval without call", "eval without call"},
	}

	for _, tt := range tests {
		if got := c.defangCalls(tt.input); got != tt.want {
			t.Errorf("defangCalls(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestDefangLinks(t *testing.T) {
	c := mustCompileDefault(t)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"safe anchor", `<a href="https://example.com">x</a>`, `<a href="https://example.com">x</a>`},
		{"javascript anchor", `<a href="javascript:void(0)">x</a>`, `<a >x</a>`},
		{"dialog call", `<a title="t" href="x" onclick="prompt(1)">x</a>`, `<a title="t" href="x">x</a>`},
		{"unquoted dropped", `<a href=x>y</a>`, `<a >y</a>`},
		{"image handler", `<img src="x" onerror="alert(1)">`, `<img src="x">`},
		{"image base64", `<img src="data:image/png;base64,AAAA">`, `<img >`},
		{"css comment", `<img src="a/**/b.png">`, `<img src="ab.png">`},
		{"script tags", "<script>x</SCRIPT >", "[removed]x[removed]"},
		{"xss tag", "<xss foo>", "[removed]"},
		{"no anchors", "<b>ok</b>", "<b>ok</b>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.defangLinks(tt.input, DefaultMaxPasses); got != tt.want {
				t.Errorf("defangLinks(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilterAttributes(t *testing.T) {
	c := mustCompileDefault(t)

	got := c.filterAttributes(`href="a" title='' onclick="x" rel='n/*c*/o' bare=1`)
	want := `href="a" rel='no'`
	if got != want {
		t.Errorf("filterAttributes = %q, want %q", got, want)
	}
}
