package postgrest

import (
	"context"
	"fmt"

	"github.com/supabase-community/postgrest-go"

	"giftflow-backend/internal/domain/flow"
	"giftflow-backend/internal/repository"
)

// AssetRepository persists upload metadata, scoped by the uploading owner.
type AssetRepository struct {
	db *postgrest.Client
}

func (r *AssetRepository) Create(ctx context.Context, asset *flow.Asset) error {
	_, _, err := r.db.From(tableAssets).
		Insert(toAssetRow(asset), false, "", "minimal", "").
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (r *AssetRepository) FindByID(ctx context.Context, ownerID, assetID string) (*flow.Asset, error) {
	data, _, err := r.db.From(tableAssets).
		Select("*", "", false).
		Eq("id", assetID).
		Eq("owner_id", ownerID).
		ExecuteWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select asset: %w", err)
	}

	rows, err := decodeRows[assetRow](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, repository.NewNotFoundWithOwner("asset", assetID, ownerID)
	}
	return rows[0].toDomain(), nil
}

func (r *AssetRepository) Delete(ctx context.Context, ownerID, assetID string) error {
	data, _, err := r.db.From(tableAssets).
		Delete("representation", "").
		Eq("id", assetID).
		Eq("owner_id", ownerID).
		ExecuteWithContext(ctx)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}

	rows, err := decodeRows[assetRow](data)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return repository.NewNotFoundWithOwner("asset", assetID, ownerID)
	}
	return nil
}
