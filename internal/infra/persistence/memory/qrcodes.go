package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
)

type qrCodeRepository struct {
	sess *session
}

func cloneQRCode(q *entity.QRCode) *entity.QRCode {
	out := *q
	if q.ExpiresAt != nil {
		expiresAt := *q.ExpiresAt
		out.ExpiresAt = &expiresAt
	}
	if q.ScanLimit != nil {
		limit := *q.ScanLimit
		out.ScanLimit = &limit
	}
	if q.CampaignID != nil {
		campaignID := *q.CampaignID
		out.CampaignID = &campaignID
	}
	out.Metadata = maps.Clone(q.Metadata)

	return &out
}

func (repo *qrCodeRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.QRCode, error) {
	var found *entity.QRCode
	err := repo.sess.do(func(ds *dataset) error {
		qr, ok := ds.qrCodes[id]
		if !ok {
			return domainerrors.ErrQRCodeNotFound
		}
		found = cloneQRCode(qr)

		return nil
	})

	return found, err
}

func (repo *qrCodeRepository) FindByContent(_ context.Context, content string) (*entity.QRCode, error) {
	var found *entity.QRCode
	err := repo.sess.do(func(ds *dataset) error {
		for _, qr := range ds.qrCodes {
			if qr.Content == content {
				found = cloneQRCode(qr)

				return nil
			}
		}

		return domainerrors.ErrQRCodeNotFound
	})

	return found, err
}

func (repo *qrCodeRepository) List(_ context.Context, filter repository.QRCodeFilter) ([]*entity.QRCode, error) {
	var qrCodes []*entity.QRCode
	err := repo.sess.do(func(ds *dataset) error {
		for _, qr := range ds.qrCodes {
			if filter.StoreID != nil && qr.StoreID != *filter.StoreID {
				continue
			}
			if filter.CampaignID != nil && (qr.CampaignID == nil || *qr.CampaignID != *filter.CampaignID) {
				continue
			}
			if filter.Status != nil && qr.Status != *filter.Status {
				continue
			}
			qrCodes = append(qrCodes, cloneQRCode(qr))
		}
		slices.SortFunc(qrCodes, func(a, b *entity.QRCode) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})

		return nil
	})

	return qrCodes, err
}

func (repo *qrCodeRepository) Create(_ context.Context, qrCode *entity.QRCode) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.stores[qrCode.StoreID]; !ok {
			return domainerrors.ErrStoreNotFound
		}
		for _, existing := range ds.qrCodes {
			if existing.Content == qrCode.Content {
				return domainerrors.ErrValidationFailed.WithDetails("qr code content already exists")
			}
		}

		if qrCode.ID == uuid.Nil {
			qrCode.ID = newID()
		}
		now := repo.sess.now()
		qrCode.CreatedAt, qrCode.UpdatedAt = now, now
		ds.qrCodes[qrCode.ID] = cloneQRCode(qrCode)

		return nil
	})
}

func (repo *qrCodeRepository) UpdateStatus(_ context.Context, id uuid.UUID, status entity.QRCodeStatus) error {
	return repo.sess.do(func(ds *dataset) error {
		qr, ok := ds.qrCodes[id]
		if !ok {
			return domainerrors.ErrQRCodeNotFound
		}
		updated := cloneQRCode(qr)
		updated.Status = status
		updated.UpdatedAt = repo.sess.now()
		ds.qrCodes[id] = updated

		return nil
	})
}

func (repo *qrCodeRepository) IncrementScanCount(_ context.Context, id uuid.UUID) error {
	return repo.sess.do(func(ds *dataset) error {
		qr, ok := ds.qrCodes[id]
		if !ok {
			return domainerrors.ErrQRCodeNotFound
		}
		if qr.LimitReached() {
			return domainerrors.ErrQRCodeScanLimitReached
		}
		updated := cloneQRCode(qr)
		updated.ScanCount++
		updated.UpdatedAt = repo.sess.now()
		ds.qrCodes[id] = updated

		return nil
	})
}
