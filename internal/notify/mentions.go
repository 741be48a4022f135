package notify

import (
	"regexp"
	"unicode/utf8"

	"github.com/thereayou/lazycord/internal/models"
)

var mentionPattern = regexp.MustCompile(`@([A-Za-z0-9_]{3,50})`)

const previewLength = 100

// ExtractMentions возвращает уникальные упомянутые username в порядке
// появления
func ExtractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool)
	var usernames []string
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			usernames = append(usernames, m[1])
		}
	}
	return usernames
}

// EvaluateMessage разбирает принятое сообщение на упоминания и рассылает
// уведомления. Вызывается после того, как сообщение уже сохранено: отказ
// здесь не влияет на сам лог сообщений.
func (d *Dispatcher) EvaluateMessage(msg *models.Message, sender *models.User, channel *models.Channel) {
	preview := truncatePreview(msg.Content)

	for _, username := range ExtractMentions(msg.Content) {
		if username == sender.Username {
			continue
		}

		target, err := d.db.FindUserByUsername(username)
		if err != nil {
			continue
		}

		d.NotifyMention(target.ID, sender.Username, channel.Name, preview)
	}
}

// truncatePreview обрезает текст до previewLength байт, не разрывая
// многобайтовые руны
func truncatePreview(content string) string {
	if len(content) <= previewLength {
		return content
	}
	cut := previewLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut]
}
