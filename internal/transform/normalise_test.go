package transform

import "testing"

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trim paragraph text",
			in:   `<body><p>  hi  </p><p>  hi <b>x</b> </p></body>`,
			want: `<body><p>hi</p><p>hi <b>x</b> </p></body>`,
		},
		{
			name: "drop empty headings and intros",
			in:   `<body><section><heading></heading><content><blockList><listIntroduction/><item><p>x</p></item></blockList></content></section></body>`,
			want: `<body><section><content><blockList><item><p>x</p></item></blockList></content></section></body>`,
		},
		{
			name: "keep headings holding whitespace",
			in:   `<body><section><heading> </heading><content><p>x</p></content></section></body>`,
			want: `<body><section><heading> </heading><content><p>x</p></content></section></body>`,
		},
		{
			name: "collapse attribute whitespace",
			in:   `<body><p class=" a   b "><ref href=" #x "/><img src=" a  b.png"/></p></body>`,
			want: `<body><p class="a b"><ref href="#x"/><img src=" a  b.png"/></p></body>`,
		},
		{
			name: "strip after break in remark",
			in:   `<body><p><remark>[a<br/>   b]</remark> <br/> c</p></body>`,
			want: `<body><p><remark>[a<br/>b]</remark> <br/> c</p></body>`,
		},
		{
			name: "empty cell edges",
			in:   `<body><table><tr><td><p/><p>x</p><p> </p></td><td><p/></td></tr></table></body>`,
			want: `<body><table><tr><td><p>x</p></td><td><p/></td></tr></table></body>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transformString(t, tt.in, Normalise)
			if got != tt.want {
				t.Fatalf("unexpected output\nexpected: %s\ngot:      %s", tt.want, got)
			}
		})
	}
}

func TestFixCrossheadings(t *testing.T) {
	in := `<mainBody>` +
		`<hcontainer name="hcontainer"><crossHeading>  First  </crossHeading></hcontainer>` +
		`<hcontainer name="hcontainer"><crossHeading> Second</crossHeading><content><p>x</p></content></hcontainer>` +
		`<hcontainer name="hcontainer"><content><p>y</p></content></hcontainer>` +
		`</mainBody>`
	want := `<mainBody>` +
		`<hcontainer name="hcontainer"><crossHeading>First</crossHeading><crossHeading>Second</crossHeading><content><p>x</p></content></hcontainer>` +
		`<hcontainer name="hcontainer"><content><p>y</p></content></hcontainer>` +
		`</mainBody>`

	got := transformString(t, in, FixCrossheadings)
	if got != want {
		t.Fatalf("unexpected output\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestPreclean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>a\n   b</p>", "<p>a b</p>"},
		{"<p>a<br/><br />\n<br/>b</p>", "<p>a<br/>b</p>"},
		{"<p>a<br/>b</p>", "<p>a<br/>b</p>"},
	}
	for _, tt := range tests {
		if got := Preclean(tt.in); got != tt.want {
			t.Errorf("Preclean(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
