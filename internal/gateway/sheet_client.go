package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"sync"

	"github.com/nebulap8/teams-automation/internal/config"
	"github.com/nebulap8/teams-automation/internal/domain/errors"
	"github.com/nebulap8/teams-automation/internal/domain/models"
)

type SheetClient struct {
	graph  *GraphClient
	domain string

	mu       sync.Mutex
	siteIDs  map[string]string
	driveIDs map[string]string
}

func NewSheetClient(cfg *config.Config, logger *slog.Logger) *SheetClient {
	return &SheetClient{
		graph:    NewGraphClient(cfg, logger, "graph_sheet"),
		domain:   cfg.GraphDomain,
		siteIDs:  make(map[string]string),
		driveIDs: make(map[string]string),
	}
}

func (c *SheetClient) siteID(ctx context.Context, siteName string) (string, error) {
	c.mu.Lock()
	if id, ok := c.siteIDs[siteName]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var site struct {
		ID string `json:"id"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetResult(&site).
		Get(c.graph.url(fmt.Sprintf("/sites/%s:/sites/%s", c.domain, siteName)))
	if err != nil {
		return "", fmt.Errorf("ошибка при поиске сайта %s: %w", siteName, err)
	}

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.siteIDs[siteName] = site.ID
	c.mu.Unlock()

	return site.ID, nil
}

func (c *SheetClient) driveID(ctx context.Context, siteID, driveName string) (string, error) {
	cacheKey := siteID + "/" + driveName

	c.mu.Lock()
	if id, ok := c.driveIDs[cacheKey]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	var drives struct {
		Value []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"value"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetResult(&drives).
		Get(c.graph.url(fmt.Sprintf("/sites/%s/drives", siteID)))
	if err != nil {
		return "", fmt.Errorf("ошибка при получении списка хранилищ: %w", err)
	}

	if err := checkResponse(resp); err != nil {
		return "", err
	}

	for _, drive := range drives.Value {
		if drive.Name == driveName {
			c.mu.Lock()
			c.driveIDs[cacheKey] = drive.ID
			c.mu.Unlock()

			return drive.ID, nil
		}
	}

	return "", &errors.ErrTrackedFileNotFound{FilePath: driveName}
}

func (c *SheetClient) workbookURL(ctx context.Context, location models.FileLocation) (string, error) {
	siteID, err := c.siteID(ctx, location.SiteName)
	if err != nil {
		return "", err
	}

	driveID, err := c.driveID(ctx, siteID, location.DriveName)
	if err != nil {
		return "", err
	}

	escaped := url.PathEscape(location.FilePath)

	return c.graph.url(fmt.Sprintf("/sites/%s/drives/%s/root:/%s:/workbook", siteID, driveID, escaped)), nil
}

// ReadRows возвращает заполненный диапазон листа построчно. Номера строк
// считаются от единицы, как в адресах ячеек книги.
func (c *SheetClient) ReadRows(ctx context.Context, location models.FileLocation, sheetName string) ([]*models.SheetRow, error) {
	base, err := c.workbookURL(ctx, location)
	if err != nil {
		return nil, err
	}

	var usedRange struct {
		RowIndex int     `json:"rowIndex"`
		Values   [][]any `json:"values"`
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetResult(&usedRange).
		Get(fmt.Sprintf("%s/worksheets('%s')/usedRange", base, sheetName))
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении листа %s: %w", sheetName, err)
	}

	if err := checkResponse(resp); err != nil {
		return nil, err
	}

	rows := make([]*models.SheetRow, 0, len(usedRange.Values))

	for i, raw := range usedRange.Values {
		cells := make([]string, 0, len(raw))
		for _, v := range raw {
			cells = append(cells, cellToString(v))
		}

		rows = append(rows, &models.SheetRow{
			Index: usedRange.RowIndex + i + 1,
			Cells: cells,
		})
	}

	return rows, nil
}

func cellToString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func (c *SheetClient) WriteCell(ctx context.Context, location models.FileLocation, sheetName, cellAddress, value string) error {
	base, err := c.workbookURL(ctx, location)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"values": [][]any{{value}},
	}

	resp, err := c.graph.request().
		SetContext(ctx).
		SetBody(payload).
		Patch(fmt.Sprintf("%s/worksheets('%s')/range(address='%s')", base, sheetName, cellAddress))
	if err != nil {
		return fmt.Errorf("ошибка при записи в ячейку %s: %w", cellAddress, err)
	}

	return checkResponse(resp)
}

// ColumnLetter переводит индекс колонки (с нуля) в буквенный адрес книги.
func ColumnLetter(idx int) string {
	letters := ""

	for idx >= 0 {
		letters = string(rune('A'+idx%26)) + letters
		idx = idx/26 - 1
	}

	return letters
}
