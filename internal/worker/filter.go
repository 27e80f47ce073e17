package worker

import "strings"

// ApplyChannelFilters вычисляет эффективный набор каналов воркера.
//
// Сначала применяются only-паттерны: если список непуст, остаются
// только совпавшие имена. Затем отбрасываются имена, совпавшие хотя
// бы с одним exclude-паттерном. Относительный порядок имён
// сохраняется; функция чистая и идемпотентная.
//
// Паттерн без wildcard сравнивается точно; паттерн с завершающим "*"
// совпадает с любым именем, начинающимся с его префикса
// ("http.*" покрывает "http.request", но не "http").
func ApplyChannelFilters(names, only, exclude []string) []string {
	filtered := make([]string, 0, len(names))

	for _, name := range names {
		if len(only) > 0 && !matchesAny(name, only) {
			continue
		}
		if matchesAny(name, exclude) {
			continue
		}
		filtered = append(filtered, name)
	}

	return filtered
}

func matchesAny(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchesFilter(name, pattern) {
			return true
		}
	}
	return false
}

// matchesFilter сопоставляет имя канала с одним паттерном.
func matchesFilter(name, pattern string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return name == pattern
}
