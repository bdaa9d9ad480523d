package inventory

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"peternakan-backend/internal/apperror"
	"peternakan-backend/internal/audit"
	"peternakan-backend/internal/auth"
	"peternakan-backend/internal/database"
	"peternakan-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ImportRow adalah satu baris data kambing dari file XLSX.
type ImportRow struct {
	Line          int
	Breed         string // kode atau nama ras
	IntakeDate    string
	WeightRange   string
	PurchasePrice int64
	Sex           string
	Estimate      string // kode estimasi
	Notes         string
}

type column int

const (
	colBreed column = iota
	colIntake
	colWeight
	colPrice
	colSex
	colEstimate
	colNotes
)

var headerAliases = map[string]column{
	"ras":           colBreed,
	"kode ras":      colBreed,
	"tanggal masuk": colIntake,
	"tanggal":       colIntake,
	"range berat":   colWeight,
	"berat":         colWeight,
	"harga beli":    colPrice,
	"jenis kelamin": colSex,
	"kelamin":       colSex,
	"estimasi":      colEstimate,
	"kode estimasi": colEstimate,
	"keterangan":    colNotes,
}

// ParseGoatSheet membaca sheet pertama. Baris pertama wajib header; urutan
// kolom bebas selama nama header dikenali.
func ParseGoatSheet(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperror.Validation("file", "file Excel tidak bisa dibaca")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperror.Validation("file", "file Excel tidak punya sheet")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperror.Validation("file", "sheet tidak bisa dibaca")
	}
	if len(rows) < 2 {
		return nil, apperror.Validation("file", "file Excel kosong")
	}

	index := map[column]int{}
	for i, h := range rows[0] {
		key := strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(h, "_", " ")), " "))
		if col, ok := headerAliases[key]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	for _, required := range []column{colPrice, colSex} {
		if _, ok := index[required]; !ok {
			return nil, apperror.Validation("file", "kolom 'Harga Beli' dan 'Jenis Kelamin' wajib ada")
		}
	}

	cell := func(row []string, col column) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []ImportRow
	var problems []string
	for i, row := range rows[1:] {
		line := i + 2
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		priceStr := strings.NewReplacer(".", "", ",", "", "Rp", "", " ", "").Replace(cell(row, colPrice))
		price, err := strconv.ParseInt(priceStr, 10, 64)
		if err != nil {
			problems = append(problems, fmt.Sprintf("baris %d: harga beli %q tidak valid", line, cell(row, colPrice)))
			continue
		}
		intake, err := normalizeImportDate(cell(row, colIntake))
		if err != nil {
			problems = append(problems, fmt.Sprintf("baris %d: tanggal %q tidak valid", line, cell(row, colIntake)))
			continue
		}

		out = append(out, ImportRow{
			Line:          line,
			Breed:         cell(row, colBreed),
			IntakeDate:    intake,
			WeightRange:   cell(row, colWeight),
			PurchasePrice: price,
			Sex:           cell(row, colSex),
			Estimate:      cell(row, colEstimate),
			Notes:         cell(row, colNotes),
		})
	}

	if len(problems) > 0 {
		return nil, apperror.Validation("file", strings.Join(problems, "; "))
	}
	if len(out) == 0 {
		return nil, apperror.Validation("file", "tidak ada baris data")
	}
	return out, nil
}

var importDateLayouts = []string{"2006-01-02", "02/01/2006", "2/1/2006", "01-02-06"}

func normalizeImportDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), nil
		}
	}
	return "", errors.New("format tanggal tidak dikenal")
}

// ImportGoats menyimpan semua baris dalam satu transaksi: satu baris gagal,
// tidak ada yang tersimpan.
func ImportGoats(db *gorm.DB, rows []ImportRow, actorID uint) ([]models.Goat, error) {
	var created []models.Goat
	err := db.Transaction(func(tx *gorm.DB) error {
		breeds := map[string]*uint{}
		estimates := map[string]*uint{}

		for _, row := range rows {
			in := GoatInput{
				IntakeDate:    row.IntakeDate,
				WeightRange:   row.WeightRange,
				PurchasePrice: row.PurchasePrice,
				Sex:           row.Sex,
				Notes:         row.Notes,
			}

			if row.Breed != "" {
				id, ok := breeds[row.Breed]
				if !ok {
					var b models.Breed
					if err := tx.Where("code = ? OR name = ?", row.Breed, row.Breed).First(&b).Error; err != nil {
						if errors.Is(err, gorm.ErrRecordNotFound) {
							return apperror.Validation("file", fmt.Sprintf("baris %d: ras %q tidak ditemukan", row.Line, row.Breed))
						}
						return err
					}
					id = &b.ID
					breeds[row.Breed] = id
				}
				in.BreedID = id
			}
			if row.Estimate != "" {
				id, ok := estimates[row.Estimate]
				if !ok {
					var e models.PriceEstimate
					if err := tx.Where("code = ?", row.Estimate).First(&e).Error; err != nil {
						if errors.Is(err, gorm.ErrRecordNotFound) {
							return apperror.Validation("file", fmt.Sprintf("baris %d: estimasi %q tidak ditemukan", row.Line, row.Estimate))
						}
						return err
					}
					id = &e.ID
					estimates[row.Estimate] = id
				}
				in.PriceEstimateID = id
			}

			goat, err := CreateGoat(tx, in)
			if err != nil {
				var ve *apperror.ValidationError
				if errors.As(err, &ve) {
					return apperror.Validation("file", fmt.Sprintf("baris %d: %s", row.Line, ve.Error()))
				}
				return err
			}
			created = append(created, *goat)
		}

		return audit.WriteLog(tx, audit.LogOptions{
			UserID:      actorID,
			EntityType:  audit.EntityGoat,
			Action:      models.AuditActionImport,
			Description: fmt.Sprintf("Import %d kambing dari Excel", len(created)),
			After:       created,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// POST /api/kambing/import (multipart, field "file")
func ImportGoatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actorID, _, err := auth.Actor(c)
		if err != nil {
			return err
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File wajib diunggah")
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Hanya file .xlsx yang didukung")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer file.Close()

		rows, err := ParseGoatSheet(file)
		if err != nil {
			return err
		}
		goats, err := ImportGoats(database.DB, rows, actorID)
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"message": fmt.Sprintf("%d kambing berhasil diimport", len(goats)),
			"data":    goats,
		})
	}
}
