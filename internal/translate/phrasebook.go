package translate

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// PhraseRef locates a phrase by category and index. The same (category,
// index) pair names the same phrase in every language.
type PhraseRef struct {
	Category string `json:"category"`
	Index    int    `json:"index"`
	Text     string `json:"text"`
}

// Phrasebook is a read-only (lang, category, index) → phrase mapping.
type Phrasebook interface {
	Lookup(lang, category string, index int) (string, bool)
	Entries(lang string) []PhraseRef
}

// MapPhrasebook is an in-memory Phrasebook. It is safe for concurrent use.
type MapPhrasebook struct {
	mu      sync.RWMutex
	phrases map[string]map[string]map[int]string
}

// NewMapPhrasebook returns an empty phrasebook.
func NewMapPhrasebook() *MapPhrasebook {
	return &MapPhrasebook{phrases: make(map[string]map[string]map[int]string)}
}

// Add stores a phrase, replacing any previous one at the same position.
func (m *MapPhrasebook) Add(lang, category string, index int, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lang = strings.ToLower(lang)
	cats, ok := m.phrases[lang]
	if !ok {
		cats = make(map[string]map[int]string)
		m.phrases[lang] = cats
	}
	idx, ok := cats[category]
	if !ok {
		idx = make(map[int]string)
		cats[category] = idx
	}
	idx[index] = text
}

// Lookup returns the phrase at (lang, category, index).
func (m *MapPhrasebook) Lookup(lang, category string, index int) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.phrases[strings.ToLower(lang)][category][index]
	return s, ok
}

// Entries lists every phrase of lang ordered by category then index.
func (m *MapPhrasebook) Entries(lang string) []PhraseRef {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []PhraseRef
	for cat, idx := range m.phrases[strings.ToLower(lang)] {
		for i, text := range idx {
			out = append(out, PhraseRef{Category: cat, Index: i, Text: text})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// Languages lists the languages with at least one phrase.
func (m *MapPhrasebook) Languages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.phrases))
	for lang := range m.phrases {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'", "´", "'", "ʼ", "'")

// NormalizePhrase is the key used for phrasebook matching: NFC, lowercase,
// unified apostrophes, collapsed whitespace and no terminal punctuation.
func NormalizePhrase(s string) string {
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = apostrophes.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRightFunc(s, func(r rune) bool {
		return (unicode.IsPunct(r) && r != '\'') || unicode.IsSpace(r)
	})
	s = strings.TrimLeft(s, "¿¡")
	return s
}

// lookupPhrase finds text among src's entries and returns the paired dst phrase.
func lookupPhrase(pb Phrasebook, text, src, dst string) (string, bool) {
	key := NormalizePhrase(text)
	if key == "" {
		return "", false
	}
	for _, e := range pb.Entries(src) {
		if NormalizePhrase(e.Text) == key {
			return pb.Lookup(dst, e.Category, e.Index)
		}
	}
	return "", false
}

// DefaultPhrasebook returns a small built-in phrasebook for the app's
// interface languages.
func DefaultPhrasebook() *MapPhrasebook {
	pb := NewMapPhrasebook()
	for lang, cats := range defaultPhrases {
		for cat, list := range cats {
			for i, text := range list {
				pb.Add(lang, cat, i, text)
			}
		}
	}
	return pb
}

var defaultPhrases = map[string]map[string][]string{
	"it": {
		"greetings":  {"Ciao", "Buongiorno", "Grazie", "Per favore", "Arrivederci"},
		"directions": {"Dov'è la stazione?", "È lontano?", "A destra", "A sinistra"},
		"food":       {"Il conto, per favore", "Un tavolo per due", "Sono vegetariano"},
		"emergency":  {"Aiuto!", "Chiamate un medico", "Dov'è l'ospedale?"},
		"shopping":   {"Quanto costa?", "Posso pagare con la carta?"},
	},
	"en": {
		"greetings":  {"Hello", "Good morning", "Thank you", "Please", "Goodbye"},
		"directions": {"Where is the station?", "Is it far?", "To the right", "To the left"},
		"food":       {"The bill, please", "A table for two", "I am vegetarian"},
		"emergency":  {"Help!", "Call a doctor", "Where is the hospital?"},
		"shopping":   {"How much is it?", "Can I pay by card?"},
	},
	"es": {
		"greetings":  {"Hola", "Buenos días", "Gracias", "Por favor", "Adiós"},
		"directions": {"¿Dónde está la estación?", "¿Está lejos?", "A la derecha", "A la izquierda"},
		"food":       {"La cuenta, por favor", "Una mesa para dos", "Soy vegetariano"},
		"emergency":  {"¡Ayuda!", "Llamen a un médico", "¿Dónde está el hospital?"},
		"shopping":   {"¿Cuánto cuesta?", "¿Puedo pagar con tarjeta?"},
	},
	"de": {
		"greetings":  {"Hallo", "Guten Morgen", "Danke", "Bitte", "Auf Wiedersehen"},
		"directions": {"Wo ist der Bahnhof?", "Ist es weit?", "Nach rechts", "Nach links"},
		"food":       {"Die Rechnung, bitte", "Einen Tisch für zwei", "Ich bin Vegetarier"},
		"emergency":  {"Hilfe!", "Rufen Sie einen Arzt", "Wo ist das Krankenhaus?"},
		"shopping":   {"Wie viel kostet das?", "Kann ich mit Karte zahlen?"},
	},
	"fr": {
		"greetings":  {"Bonjour", "Bonjour", "Merci", "S'il vous plaît", "Au revoir"},
		"directions": {"Où est la gare ?", "C'est loin ?", "À droite", "À gauche"},
		"food":       {"L'addition, s'il vous plaît", "Une table pour deux", "Je suis végétarien"},
		"emergency":  {"Au secours !", "Appelez un médecin", "Où est l'hôpital ?"},
		"shopping":   {"Combien ça coûte ?", "Puis-je payer par carte ?"},
	},
}
