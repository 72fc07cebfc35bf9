package misc

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"

	log "github.com/sirupsen/logrus"
)

// Quote is one motivational quote shown on the app home screen.
type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Mood   string `json:"mood"`
}

type QuotesManager struct {
	Quotes     []*Quote
	MoodQuotes map[string][]*Quote
}

// NewQuoteManager reads the motivational quotes CSV: QUOTE;AUTHOR;MOOD.
func NewQuoteManager(quotesCsvReader *csv.Reader) (*QuotesManager, error) {
	qm := &QuotesManager{}
	qm.MoodQuotes = make(map[string][]*Quote)

	log.Println("reading quotes CSV ...")

	quotesCsvReader.Comma = ';'
	for {
		record, err := quotesCsvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if len(record) != 3 {
			return nil, fmt.Errorf("record [%s] does not have 3 elements", record)
		}

		quote := &Quote{
			Text:   record[0],
			Author: record[1],
			Mood:   record[2],
		}
		qm.Quotes = append(qm.Quotes, quote)
		qm.MoodQuotes[quote.Mood] = append(qm.MoodQuotes[quote.Mood], quote)
	}

	if len(qm.Quotes) == 0 {
		return nil, fmt.Errorf("quotes CSV is empty")
	}

	log.Printf("quotes CSV read %d quotes", len(qm.Quotes))

	return qm, nil
}

func (qm *QuotesManager) RandomQuote() *Quote {
	index := rand.Float64() * float64(len(qm.Quotes))
	return qm.Quotes[int(index)]
}

// RandomQuoteForMood falls back to any quote when the mood is unknown.
func (qm *QuotesManager) RandomQuoteForMood(mood string) *Quote {
	quotes := qm.MoodQuotes[mood]
	if len(quotes) == 0 {
		return qm.RandomQuote()
	}
	index := rand.Float64() * float64(len(quotes))
	return quotes[int(index)]
}
