package subscription

import "github.com/VitaminP8/postgraph/graph/model"

// PostAdded - топик уведомлений о новых постах
const PostAdded = "POST_ADDED"

type Manager interface {
	// Subscribe возвращает канал событий топика и функцию отписки (закрывает канал)
	Subscribe(topic string) (<-chan *model.Post, func())
	// Publish не возвращает ошибок: отсутствие подписчиков или сбой брокера не влияют на вызывающего
	Publish(topic string, post *model.Post)
}
