package books

import (
	"context"

	"github.com/maktabaapp/maktaba/pkg/models"
	"github.com/maktabaapp/maktaba/pkg/store"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

var sampleBooks = []models.Book{
	{Title: "تصميم النظم الموزعة", Author: "د. أحمد علي", Category: "تكنولوجيا", Year: 2023, Status: models.BookStatusReading, CoverURL: "https://placehold.co/400x600/1e293b/white?text=Distributed+Systems"},
	{Title: "تاريخ العمارة الإسلامية", Author: "محمد حسن", Category: "تاريخ", Year: 2021, Status: models.BookStatusCompleted, CoverURL: "https://placehold.co/400x600/1e293b/white?text=Islamic+Architecture"},
	{Title: "مبادئ التصميم الجرافيكي", Author: "سارة محمود", Category: "فنون", Year: 2022, Status: models.BookStatusPlanned, CoverURL: "https://placehold.co/400x600/1e293b/white?text=Graphic+Design"},
	{Title: "الطبيعة والبيئة", Author: "علي يوسف", Category: "علوم", Year: 2020, Status: models.BookStatusPlanned, CoverURL: "https://placehold.co/400x600/1e293b/white?text=Nature"},
	{Title: "الذكاء الاصطناعي", Author: "نور الدين", Category: "تكنولوجيا", Year: 2024, Status: models.BookStatusReading, CoverURL: "https://placehold.co/400x600/1e293b/white?text=AI"},
	{Title: "فلسفة العلم", Author: "د. محمود زيدان", Category: "فلسفة", Year: 2019, Status: models.BookStatusCompleted, CoverURL: "https://placehold.co/400x600/1e293b/white?text=Philosophy"},
}

// SeedSampleBooks fills an empty library with a handful of sample books and
// reports how many were created.
func (svc *Service) SeedSampleBooks(ctx context.Context) (int, error) {
	existing, err := svc.store.ListBooks(ctx, store.ListOptions{})
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	for i := range sampleBooks {
		book := sampleBooks[i]
		if err := svc.CreateBook(ctx, &book); err != nil {
			return i, err
		}
	}

	logger.FromContext(ctx).Info("seeded sample books", logger.Data{"count": len(sampleBooks)})
	return len(sampleBooks), nil
}
