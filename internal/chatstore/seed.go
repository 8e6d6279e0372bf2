package chatstore

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/dmelnik/chatkeeper/internal/models"
)

//go:embed chats.json
var seedData []byte

type seedFile struct {
	Chats models.Collection `json:"chats"`
}

// seedHumanChats decodes the embedded seed data used when the human collection
// has never been persisted.
func seedHumanChats() (models.Collection, error) {
	var seed seedFile
	if err := json.Unmarshal(seedData, &seed); err != nil {
		return nil, fmt.Errorf("decode seed data: %w", err)
	}
	return seed.Chats, nil
}
