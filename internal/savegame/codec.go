// internal/savegame/codec.go
package savegame

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// ErrCorrupt - сохраненная доска не является JSON-объектом.
var ErrCorrupt = errors.New("savegame: corrupt blackboard")

// EncodeBlackboard сериализует данные доски в JSON-объект с отсортированными
// ключами. Значения должны кодироваться в JSON.
func EncodeBlackboard(data map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := []byte("{}")
	for _, k := range keys {
		var err error
		doc, err = sjson.SetBytes(doc, escapeKey(k), data[k])
		if err != nil {
			return nil, fmt.Errorf("encode blackboard key %q: %w", k, err)
		}
	}
	return doc, nil
}

// DecodeBlackboard разбирает JSON-объект от EncodeBlackboard. Числа
// возвращаются как float64, вложенные объекты как map[string]any, массивы как
// []any.
func DecodeBlackboard(doc []byte) (map[string]any, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrCorrupt)
	}
	root := gjson.ParseBytes(doc)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: want a JSON object", ErrCorrupt)
	}
	out := make(map[string]any)
	root.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.Value()
		return true
	})
	return out, nil
}

// escapeKey превращает ключ доски в путь sjson ровно к этому ключу: символы
// синтаксиса путей экранируются, ключи из одних цифр становятся ключами
// объекта, а не индексами массива.
func escapeKey(k string) string {
	var b strings.Builder
	if k != "" && strings.IndexFunc(k, func(r rune) bool { return !unicode.IsDigit(r) }) == -1 {
		b.WriteByte(':')
	}
	for _, r := range k {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != ' ' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
