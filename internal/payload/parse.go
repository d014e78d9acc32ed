package payload

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"chat-sync/internal/domain"
)

// ErrUnexpectedShape indica que el archivo no trae la ruta
// metaData.entry[0].changes[0].value que produce el webhook.
var ErrUnexpectedShape = errors.New("payload with unexpected structure")

type filePayload struct {
	MetaData struct {
		Entry []struct {
			Changes []struct {
				Value changeValue `json:"value"`
			} `json:"changes"`
		} `json:"entry"`
	} `json:"metaData"`
}

type changeValue struct {
	Contacts []contact       `json:"contacts"`
	Messages []inboundText   `json:"messages"`
	Statuses []statusPayload `json:"statuses"`
}

type contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type inboundText struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
}

type statusPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Parse convierte un payload de webhook en registros de cambio. Un mismo
// archivo puede aportar una llegada de mensaje, una transición de estado, o
// ambas.
func Parse(raw []byte) ([]domain.ChangeRecord, error) {
	var payload filePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}

	if len(payload.MetaData.Entry) == 0 || len(payload.MetaData.Entry[0].Changes) == 0 {
		return nil, ErrUnexpectedShape
	}
	value := payload.MetaData.Entry[0].Changes[0].Value

	var records []domain.ChangeRecord

	if len(value.Messages) > 0 && len(value.Contacts) > 0 {
		msg := value.Messages[0]
		ct := value.Contacts[0]
		// Solo mensajes de texto; otros tipos no traen body y se ignoran.
		if msg.Text != nil && msg.Text.Body != "" {
			records = append(records, domain.NewArrival(domain.MessageArrival{
				WaID:      ct.WaID,
				Name:      ct.Profile.Name,
				MessageID: msg.ID,
				Body:      msg.Text.Body,
				Timestamp: msg.Timestamp,
			}))
		}
	}

	if len(value.Statuses) > 0 {
		st := value.Statuses[0]
		records = append(records, domain.NewStatusUpdate(domain.StatusTransition{
			MessageID: st.ID,
			Status:    st.Status,
		}))
	}

	return records, nil
}

// ParseDir lee todos los .json del directorio en orden de nombre y acumula
// sus registros. Archivos vacíos, ilegibles o con otra forma se saltan con
// warning; nunca abortan la corrida.
func ParseDir(logger *zap.Logger, dir string) ([]domain.ChangeRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var records []domain.ChangeRecord
	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("payload file unreadable, skipping", zap.String("file", name), zap.Error(err))
			continue
		}
		if strings.TrimSpace(string(raw)) == "" {
			logger.Warn("empty payload file, skipping", zap.String("file", name))
			continue
		}

		parsed, err := Parse(raw)
		if err != nil {
			logger.Warn("payload file skipped", zap.String("file", name), zap.Error(err))
			continue
		}
		records = append(records, parsed...)
	}

	return records, nil
}
