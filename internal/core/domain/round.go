package domain

// CardsPerRound is the fixed number of cards in every round.
const CardsPerRound = 3

// Card is one statement shown to players.
type Card struct {
	Host  string `json:"host"`
	Title string `json:"title"`
	Tag   string `json:"tag"`
	IsLie bool   `json:"is_lie"`

	// RealIdx is the pool index a truth card was resolved from, if any.
	RealIdx *int `json:"real_idx"`
}

// Round is three cards sharing a category, exactly one of which is the lie.
type Round struct {
	// Topic equals Tag; kept for clients that read either key.
	Topic    string `json:"topic"`
	Tag      string `json:"tag"`
	Cards    []Card `json:"cards"`
	LieIndex int    `json:"lie_index"`
}

// PublicCard is the player-facing projection of a Card.
type PublicCard struct {
	Host  string `json:"host"`
	Title string `json:"title"`
}

// PublicRound is what a player sees before guessing.
type PublicRound struct {
	Index int          `json:"round"`
	Total int          `json:"total"`
	Tag   string       `json:"tag"`
	Cards []PublicCard `json:"cards"`
}

// Public strips lie information from the round.
func (r Round) Public(index, total int) PublicRound {
	cards := make([]PublicCard, 0, len(r.Cards))
	for _, c := range r.Cards {
		cards = append(cards, PublicCard{Host: c.Host, Title: c.Title})
	}
	return PublicRound{Index: index, Total: total, Tag: r.Tag, Cards: cards}
}

// GuessResult is the outcome of a player's guess.
type GuessResult struct {
	Correct  bool `json:"correct"`
	LieIndex int  `json:"lie_index"`
}

// Grade scores a guess of which card is the lie.
func (r Round) Grade(selected int) GuessResult {
	return GuessResult{Correct: selected == r.LieIndex, LieIndex: r.LieIndex}
}
