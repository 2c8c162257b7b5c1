package subscription

import (
	"encoding/json"
	"fmt"

	"github.com/VitaminP8/postgraph/graph/model"
)

func encodePost(post *model.Post) ([]byte, error) {
	data, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("could not encode post: %w", err)
	}
	return data, nil
}

func decodePost(data []byte) (*model.Post, error) {
	var post model.Post
	if err := json.Unmarshal(data, &post); err != nil {
		return nil, fmt.Errorf("could not decode post: %w", err)
	}
	return &post, nil
}
