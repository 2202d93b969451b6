package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

type Parser struct {
	br *bufio.Reader

	// BlockDelete skips lines beginning with '/' when set. When
	// unset the marker is stripped and the line runs normally.
	BlockDelete bool

	// OnMessage receives the text of (MSG,...) comments.
	OnMessage func(string)
}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rx        = regexp.MustCompile(`^([A-Z][0-9.\-]+)+$`)
	rxSplit   = regexp.MustCompile(`[A-Z][0-9.\-]+`)
	rxComment = regexp.MustCompile(`\(([^)]*)\)`)
)

func (p *Parser) Read() (ln Block, err error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return nil, err
		}

		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "/") {
			if p.BlockDelete {
				continue
			}
			s = s[1:]
		}

		for _, c := range rxComment.FindAllStringSubmatch(s, -1) {
			text := strings.TrimSpace(c[1])
			if p.OnMessage != nil && len(text) >= 4 && strings.EqualFold(text[:4], "msg,") {
				p.OnMessage(strings.TrimSpace(text[4:]))
			}
		}
		s = rxComment.ReplaceAllString(s, "")

		s = strings.SplitN(s, ";", 2)[0]
		s = strings.Replace(s, " ", "", -1)
		s = strings.TrimSpace(s)
		s = strings.ToUpper(s)

		if s == "" {
			continue
		}

		if !rx.MatchString(s) {
			return nil, errors.New("invalid or unhandled line: " + s)
		}

		codes := rxSplit.FindAllString(s, -1)
		res := make([]Word, len(codes))

		for i, c := range codes {
			_, err = fmt.Sscanf(c, "%c%f", &res[i].W, &res[i].Arg)
			if err != nil {
				return nil, err
			}
		}

		return res, nil
	}
}
