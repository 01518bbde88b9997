package transform

import (
	"testing"

	"github.com/beevik/etree"
)

func TestTableBrToP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "nested inline chain",
			in:   `<td><p>a<b><i>x<br/>y</i></b>b</p></td>`,
			want: `<td><p>a<b><i>x</i></b></p><p><b><i>y</i></b>b</p></td>`,
		},
		{
			name: "several breaks",
			in:   `<td><p>one<br/>two<br/>three</p></td>`,
			want: `<td><p>one</p><p>two</p><p>three</p></td>`,
		},
		{
			name: "break in remark kept",
			in:   `<td><p>a<remark>[x<br/>y]</remark></p></td>`,
			want: `<td><p>a<remark>[x<br/>y]</remark></p></td>`,
		},
		{
			name: "outside tables untouched",
			in:   `<content><p>a<br/>b</p></content>`,
			want: `<content><p>a<br/>b</p></content>`,
		},
		{
			name: "copies drop eIds",
			in:   `<th><p eId="p1" class="c">a<br/>b</p></th>`,
			want: `<th><p eId="p1" class="c">a</p><p class="c">b</p></th>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := transformString(t, tt.in, func(root *etree.Element) { TableBrToP(root, "br") })
			if got != tt.want {
				t.Fatalf("expected %s, got: %s", tt.want, got)
			}
		})
	}
}

func TestTableBrToPEol(t *testing.T) {
	got := transformString(t, `<td><p>a<eol/>b<br/>c</p></td>`, func(root *etree.Element) { TableBrToP(root, "eol") })
	if got != `<td><p>a</p><p>b<br/>c</p></td>` {
		t.Fatalf("unexpected output: %s", got)
	}
}

func TestTableNukeBlankPs(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`<td><p></p><p>x</p></td>`, `<td><p>x</p></td>`},
		{`<td><p></p></td>`, `<td><p/></td>`},
		{`<td><p/><p/></td>`, `<td><p/></td>`},
		{`<td><p>x</p><p> </p></td>`, `<td><p>x</p><p> </p></td>`},
		{`<content><p/><p>x</p></content>`, `<content><p/><p>x</p></content>`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := transformString(t, tt.in, func(root *etree.Element) { TableNukeBlankPs(root) })
			if got != tt.want {
				t.Fatalf("expected %s, got: %s", tt.want, got)
			}
		})
	}
}
