package grocery

import (
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltLedger", func() {
	var (
		tmpDir string
		dbPath string
		ledger *BoltLedger
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		ledger, err = NewBoltLedger(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if ledger != nil {
			ledger.Close()
		}
	})

	Describe("SaveRun", func() {
		var (
			record *RunRecord
			err    error
		)

		BeforeEach(func() {
			record = &RunRecord{
				ID:            "run-1",
				StartedAt:     time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
				FinishedAt:    time.Date(2025, 3, 2, 10, 5, 0, 0, time.UTC),
				ReceiptSource: "receipt.jpg",
				ItemCount:     4,
				RecipeCount:   2,
				TotalCents:    4297,
				Artifacts:     []string{TrackerFile, RecipeFile, ExpenseReportFile},
			}
		})

		JustBeforeEach(func() {
			err = ledger.SaveRun(record)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the record to the database", func() {
				saved, getErr := ledger.GetRun("run-1")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("run-1"))
			})
		})
	})

	Describe("GetRun", func() {
		var (
			runID  string
			record *RunRecord
			err    error
		)

		JustBeforeEach(func() {
			record, err = ledger.GetRun(runID)
		})

		When("the run exists", func() {
			BeforeEach(func() {
				runID = "run-1"
				saved := &RunRecord{
					ID:         "run-1",
					StartedAt:  time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
					ItemCount:  4,
					TotalCents: 4297,
					Artifacts:  []string{TrackerFile},
				}
				Expect(ledger.SaveRun(saved)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the correct run ID", func() {
				Expect(record.ID).To(Equal("run-1"))
			})

			It("should return the correct totals", func() {
				Expect(record.ItemCount).To(Equal(4))
				Expect(record.TotalCents).To(Equal(4297))
			})

			It("should return the artifact list", func() {
				Expect(record.Artifacts).To(Equal([]string{TrackerFile}))
			})
		})

		When("the run does not exist", func() {
			var expectedErr error

			BeforeEach(func() {
				runID = "nonexistent"
				expectedErr = errors.New("run not found: nonexistent")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(expectedErr))
			})
		})
	})

	Describe("ListRuns", func() {
		var (
			records []*RunRecord
			err     error
		)

		JustBeforeEach(func() {
			records, err = ledger.ListRuns()
		})

		When("runs exist", func() {
			BeforeEach(func() {
				run1 := &RunRecord{ID: "run-1", StartedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
				run2 := &RunRecord{ID: "run-2", StartedAt: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)}
				Expect(ledger.SaveRun(run1)).NotTo(HaveOccurred())
				Expect(ledger.SaveRun(run2)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return all runs", func() {
				Expect(records).To(HaveLen(2))
			})
		})

		When("no runs exist", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return an empty list", func() {
				Expect(records).To(BeEmpty())
			})
		})
	})

	Describe("SaveInventory", func() {
		var (
			snapshot *InventorySnapshot
			err      error
		)

		BeforeEach(func() {
			snapshot = &InventorySnapshot{
				RunID:   "run-1",
				TakenAt: time.Date(2025, 3, 2, 10, 5, 0, 0, time.UTC),
				Items: []Item{
					{ItemName: "Milk", Count: 1, Unit: "gallon", ExpirationDate: "2025-03-09"},
				},
			}
		})

		JustBeforeEach(func() {
			err = ledger.SaveInventory(snapshot)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the snapshot to the database", func() {
				saved, getErr := ledger.GetInventory()
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.RunID).To(Equal("run-1"))
				Expect(saved.Items).To(HaveLen(1))
			})
		})

		When("a snapshot already exists", func() {
			BeforeEach(func() {
				previous := &InventorySnapshot{
					RunID: "run-0",
					Items: []Item{{ItemName: "Bread", Count: 2, Unit: "pcs"}},
				}
				Expect(ledger.SaveInventory(previous)).NotTo(HaveOccurred())
			})

			It("should overwrite it", func() {
				saved, getErr := ledger.GetInventory()
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.RunID).To(Equal("run-1"))
				Expect(saved.Items[0].ItemName).To(Equal("Milk"))
			})
		})
	})

	Describe("GetInventory", func() {
		var (
			snapshot *InventorySnapshot
			err      error
		)

		JustBeforeEach(func() {
			snapshot, err = ledger.GetInventory()
		})

		When("a snapshot exists", func() {
			BeforeEach(func() {
				saved := &InventorySnapshot{
					RunID: "run-1",
					Items: []Item{
						{ItemName: "Milk", Count: 1, Unit: "gallon", ExpirationDate: "2025-03-09"},
						{ItemName: "Eggs", Count: 10, Unit: "pcs", ExpirationDate: "2025-03-23"},
					},
				}
				Expect(ledger.SaveInventory(saved)).NotTo(HaveOccurred())
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the stored items", func() {
				Expect(snapshot.Items).To(HaveLen(2))
				Expect(snapshot.Items[0].ExpirationDate).To(Equal("2025-03-09"))
			})
		})

		When("no snapshot has been recorded", func() {
			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("no inventory snapshot recorded"))
			})
		})
	})

	Describe("Close", func() {
		It("should not return an error", func() {
			err := ledger.Close()
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
