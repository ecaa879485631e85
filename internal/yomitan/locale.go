package yomitan

import "fmt"

// examplesLabel is the summary line of a collapsed example list, in the
// language the glosses are written in.
func examplesLabel(lang string, n int) string {
	var singular, plural string
	switch lang {
	case "fr":
		singular, plural = "exemple", "exemples"
	case "de":
		singular, plural = "Beispiel", "Beispiele"
	case "es":
		singular, plural = "ejemplo", "ejemplos"
	case "ru":
		singular, plural = "пример", "примеры"
	case "zh", "ja":
		return fmt.Sprintf("%d 例", n)
	default:
		singular, plural = "example", "examples"
	}
	if n == 1 {
		return "1 " + singular
	}
	return fmt.Sprintf("%d %s", n, plural)
}

func etymologyLabel(lang string) string {
	switch lang {
	case "fr":
		return "Étymologie"
	case "de":
		return "Herkunft"
	case "es":
		return "Etimología"
	case "ru":
		return "Этимология"
	default:
		return "Etymology"
	}
}
