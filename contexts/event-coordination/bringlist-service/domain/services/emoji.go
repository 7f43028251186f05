package services

import (
	"strings"

	"meetfix/contexts/event-coordination/bringlist-service/domain/entities"
)

const DefaultSuggestionLimit = 5

type emojiKeyword struct {
	keyword string
	emoji   string
}

// emojiKeywords is ordered; earlier keywords win when several share an emoji.
var emojiKeywords = []emojiKeyword{
	{"beer", "🍺"},
	{"bier", "🍺"},
	{"sör", "🍺"},
	{"pivo", "🍺"},
	{"wine", "🍷"},
	{"bor", "🍷"},
	{"vino", "🍷"},
	{"cocktail", "🍹"},
	{"koktél", "🍹"},
	{"drink", "🥤"},
	{"ital", "🥤"},
	{"juice", "🧃"},
	{"water", "💧"},
	{"víz", "💧"},
	{"soda", "🥤"},
	{"cola", "🥤"},
	{"coke", "🥤"},
	{"coffee", "☕"},
	{"kávé", "☕"},
	{"tea", "🍵"},
	{"pizza", "🍕"},
	{"burger", "🍔"},
	{"hamburger", "🍔"},
	{"hotdog", "🌭"},
	{"hot dog", "🌭"},
	{"taco", "🌮"},
	{"burrito", "🌯"},
	{"sushi", "🍣"},
	{"ramen", "🍜"},
	{"noodle", "🍜"},
	{"pasta", "🍝"},
	{"bread", "🍞"},
	{"kenyér", "🍞"},
	{"sandwich", "🥪"},
	{"szendvics", "🥪"},
	{"salad", "🥗"},
	{"saláta", "🥗"},
	{"fries", "🍟"},
	{"chips", "🍟"},
	{"sült", "🍟"},
	{"chicken", "🍗"},
	{"csirke", "🍗"},
	{"meat", "🥩"},
	{"hús", "🥩"},
	{"steak", "🥩"},
	{"fish", "🐟"},
	{"hal", "🐟"},
	{"shrimp", "🦐"},
	{"egg", "🥚"},
	{"tojás", "🥚"},
	{"cheese", "🧀"},
	{"sajt", "🧀"},
	{"cake", "🎂"},
	{"torta", "🎂"},
	{"cupcake", "🧁"},
	{"muffin", "🧁"},
	{"cookie", "🍪"},
	{"keksz", "🍪"},
	{"donut", "🍩"},
	{"doughnut", "🍩"},
	{"fánk", "🍩"},
	{"chocolate", "🍫"},
	{"csoki", "🍫"},
	{"candy", "🍬"},
	{"cukor", "🍬"},
	{"ice", "🧊"},
	{"jég", "🧊"},
	{"ice cream", "🍦"},
	{"fagyi", "🍦"},
	{"popcorn", "🍿"},
	{"fruit", "🍎"},
	{"gyümölcs", "🍎"},
	{"apple", "🍎"},
	{"alma", "🍎"},
	{"banana", "🍌"},
	{"banán", "🍌"},
	{"grape", "🍇"},
	{"szőlő", "🍇"},
	{"strawberry", "🍓"},
	{"eper", "🍓"},
	{"watermelon", "🍉"},
	{"dinnye", "🍉"},
	{"lemon", "🍋"},
	{"citrom", "🍋"},
	{"orange", "🍊"},
	{"narancs", "🍊"},
	{"peach", "🍑"},
	{"barack", "🍑"},
	{"cherry", "🍒"},
	{"cseresznye", "🍒"},
	{"corn", "🌽"},
	{"kukorica", "🌽"},
	{"pepper", "🌶️"},
	{"paprika", "🌶️"},
	{"tomato", "🍅"},
	{"paradicsom", "🍅"},
	{"carrot", "🥕"},
	{"répa", "🥕"},
	{"speaker", "🔊"},
	{"hangszóró", "🔊"},
	{"music", "🎵"},
	{"zene", "🎵"},
	{"guitar", "🎸"},
	{"gitár", "🎸"},
	{"drum", "🥁"},
	{"dob", "🥁"},
	{"microphone", "🎤"},
	{"mikrofon", "🎤"},
	{"game", "🎮"},
	{"játék", "🎮"},
	{"controller", "🎮"},
	{"ball", "⚽"},
	{"labda", "⚽"},
	{"football", "🏈"},
	{"basketball", "🏀"},
	{"chair", "🪑"},
	{"szék", "🪑"},
	{"table", "🍽️"},
	{"asztal", "🍽️"},
	{"plate", "🍽️"},
	{"tányér", "🍽️"},
	{"cup", "🥤"},
	{"pohár", "🥤"},
	{"fork", "🍴"},
	{"knife", "🔪"},
	{"kés", "🔪"},
	{"spoon", "🥄"},
	{"kanál", "🥄"},
	{"napkin", "🧻"},
	{"szalvéta", "🧻"},
	{"towel", "🧻"},
	{"törülköző", "🧻"},
	{"blanket", "🛏️"},
	{"takaró", "🛏️"},
	{"candle", "🕯️"},
	{"gyertya", "🕯️"},
	{"fire", "🔥"},
	{"tűz", "🔥"},
	{"grill", "🔥"},
	{"tent", "⛺"},
	{"sátor", "⛺"},
	{"bag", "👜"},
	{"táska", "👜"},
	{"backpack", "🎒"},
	{"hátizsák", "🎒"},
	{"camera", "📷"},
	{"kamera", "📷"},
	{"phone", "📱"},
	{"telefon", "📱"},
	{"charger", "🔌"},
	{"töltő", "🔌"},
	{"sunscreen", "🧴"},
	{"naptej", "🧴"},
	{"umbrella", "☂️"},
	{"esernyő", "☂️"},
	{"gift", "🎁"},
	{"ajándék", "🎁"},
	{"present", "🎁"},
	{"balloon", "🎈"},
	{"lufi", "🎈"},
	{"decoration", "🎊"},
	{"dekoráció", "🎊"},
	{"flag", "🚩"},
	{"zászló", "🚩"},
	{"box", "📦"},
	{"doboz", "📦"},
	{"tool", "🔧"},
	{"szerszám", "🔧"},
	{"flashlight", "🔦"},
	{"zseblámpa", "🔦"},
	{"map", "🗺️"},
	{"térkép", "🗺️"},
	{"ticket", "🎫"},
	{"jegy", "🎫"},
	{"money", "💰"},
	{"pénz", "💰"},
	{"cash", "💵"},
	{"key", "🔑"},
	{"kulcs", "🔑"},
	{"medicine", "💊"},
	{"gyógyszer", "💊"},
	{"snack", "🍿"},
	{"nasi", "🍿"},
	{"chip", "🍟"},
	{"sauce", "🫙"},
	{"szósz", "🫙"},
	{"ketchup", "🫙"},
	{"mustard", "🫙"},
}

// SuggestEmoji returns up to limit emojis for query. Keywords starting with the
// query come first, then keywords containing it. Each emoji appears once.
func SuggestEmoji(query string, limit int) []entities.EmojiSuggestion {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}

	results := make([]entities.EmojiSuggestion, 0, limit)
	seen := make(map[string]struct{}, limit)
	collect := func(match func(keyword string) bool) bool {
		for _, entry := range emojiKeywords {
			if _, ok := seen[entry.emoji]; ok || !match(entry.keyword) {
				continue
			}
			seen[entry.emoji] = struct{}{}
			results = append(results, entities.EmojiSuggestion{Keyword: entry.keyword, Emoji: entry.emoji})
			if len(results) >= limit {
				return true
			}
		}
		return false
	}

	if collect(func(keyword string) bool { return strings.HasPrefix(keyword, query) }) {
		return results
	}
	collect(func(keyword string) bool { return strings.Contains(keyword, query) })
	return results
}
