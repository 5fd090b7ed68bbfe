package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/viant/parsly"
)

// Parse builds an element from the text form of a tuple pattern, e.g.
//
//	("request", ts, =self)
//	("ack", _, sender)
//
// Quoted text and numbers match as constants, `_` matches anything, a bare
// identifier binds the value under that name and `=name` requires equality
// with an existing binding or process field.
func Parse(input string) (Element, error) {
	cursor := parsly.NewCursor("", []byte(input), 0)
	element, err := parseElement(cursor)
	if err != nil {
		return nil, err
	}
	cursor.MatchOne(whitespaceToken)
	if cursor.Pos < cursor.InputSize {
		return nil, fmt.Errorf("unexpected input at %v: %q", cursor.Pos, input[cursor.Pos:])
	}
	return element, nil
}

func parseElement(cursor *parsly.Cursor) (Element, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, openParenToken, equalsToken, stringToken, numberToken, identifierToken)
	switch matched.Code {
	case openParenToken.Code:
		return parseTuple(cursor)
	case equalsToken.Code:
		matched = cursor.MatchOne(identifierToken)
		if matched.Code != identifierToken.Code {
			return nil, cursor.NewError(identifierToken)
		}
		return Ref(matched.Text(cursor)), nil
	case stringToken.Code:
		return Const(unquote(matched.Text(cursor))), nil
	case numberToken.Code:
		return parseNumber(matched.Text(cursor))
	case identifierToken.Code:
		switch text := matched.Text(cursor); text {
		case "_":
			return Any(), nil
		case "true":
			return Const(true), nil
		case "false":
			return Const(false), nil
		case "nil":
			return Const(nil), nil
		default:
			return Bind(text), nil
		}
	}
	return nil, cursor.NewError(openParenToken)
}

func parseTuple(cursor *parsly.Cursor) (Element, error) {
	matched := cursor.MatchAfterOptional(whitespaceToken, closeParenToken)
	if matched.Code == closeParenToken.Code {
		return Tuple(), nil
	}
	var elements []Element
	for {
		element, err := parseElement(cursor)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)

		matched = cursor.MatchAfterOptional(whitespaceToken, commaToken, closeParenToken)
		switch matched.Code {
		case commaToken.Code:
			matched = cursor.MatchAfterOptional(whitespaceToken, closeParenToken)
			if matched.Code == closeParenToken.Code {
				return Tuple(elements...), nil
			}
		case closeParenToken.Code:
			return Tuple(elements...), nil
		default:
			return nil, cursor.NewError(closeParenToken)
		}
	}
}

func parseNumber(text string) (Element, error) {
	if !strings.Contains(text, ".") {
		value, err := strconv.Atoi(text)
		if err != nil {
			return nil, fmt.Errorf("invalid integer literal %q: %w", text, err)
		}
		return Const(value), nil
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid numeric literal %q: %w", text, err)
	}
	return Const(value), nil
}

func unquote(text string) string {
	if len(text) < 2 {
		return text
	}
	body := text[1 : len(text)-1]
	if !strings.ContainsRune(body, '\\') {
		return body
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
		}
		sb.WriteByte(body[i])
	}
	return sb.String()
}
