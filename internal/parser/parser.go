// Package parser extracts card definitions from plain-text/markdown files.
// A card is a "Q:" line (front), an "A:" line (back) and an optional "T:"
// line of whitespace-separated tags; "---" separates cards explicitly.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Card is one parsed front/back pair with optional tags.
type Card struct {
	Front string
	Back  string
	Tags  []string
}

const (
	frontPrefix = "Q:"
	backPrefix  = "A:"
	tagsPrefix  = "T:"
)

type state int

const (
	seeking state = iota
	readingFront
	readingBack
)

// ParseFile reads a file from the given path and extracts all cards.
func ParseFile(path string) ([]Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads from an io.Reader and extracts all cards. Front and back blocks
// may span multiple lines; a card without a front is discarded.
func Parse(r io.Reader) ([]Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []Card
	var current Card
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingFront:
			current.Front = content
		case readingBack:
			current.Back = content
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Front != "" {
			cards = append(cards, current)
		}
		current = Card{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "---":
			finishCard()
		case strings.HasPrefix(line, frontPrefix):
			if currentState != seeking { // a new front always starts a new card
				finishCard()
			}
			currentState = readingFront
			block = append(block, trimPrefix(line, frontPrefix))
		case strings.HasPrefix(line, backPrefix):
			flushBlock()
			currentState = readingBack
			block = append(block, trimPrefix(line, backPrefix))
		case strings.HasPrefix(line, tagsPrefix):
			flushBlock()
			current.Tags = append(current.Tags, strings.Fields(trimPrefix(line, tagsPrefix))...)
		case currentState != seeking:
			block = append(block, line)
		}
	}

	finishCard() // finish the very last card in the file

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

func trimPrefix(line, prefix string) string {
	content := line[len(prefix):]
	if strings.HasPrefix(content, " ") {
		content = content[1:]
	}
	return content
}
