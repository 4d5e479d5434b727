package journal_test

import (
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/tweska/multio/core"
	"github.com/tweska/multio/journal"
)

func fieldMessage(payload []byte) *core.Message {
	md := core.NewMetadata()
	md.SetString("precision", "single")
	md.SetI64("param", 130)
	return core.NewMessage(core.Field, core.NewPeer("client", 0), core.NewPeer("server", 0), md, core.NewOwnedBuffer(payload))
}

var _ = Describe("Journal", func() {
	var (
		dir  string
		path string
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "multio-journal-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(dir, "journal.bin")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(dir)).To(Succeed())
	})

	It("round-trips one record through Writer and Reader", func() {
		w, err := journal.Open(path)
		Expect(err).NotTo(HaveOccurred())

		payload := []byte{1, 2, 3, 4}
		Expect(w.AppendWrite(fieldMessage(payload), 7)).To(Succeed())
		Expect(w.AppendEnd(7)).To(Succeed())
		Expect(w.CloseRecord()).To(Succeed())
		Expect(w.Close()).To(Succeed())

		r, err := journal.OpenReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		rec, err := r.ReadRecord()
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Header.Tag).To(Equal(journal.JournalEntry))
		Expect(rec.Header.NumEntries).To(Equal(uint16(3)))
		Expect(rec.Entries).To(HaveLen(3))

		Expect(rec.Entries[0].Tag).To(Equal(journal.Data))
		Expect(rec.Entries[0].PayloadLength).To(Equal(uint64(len(payload))))
		Expect(rec.Entries[0].Payload).To(Equal(payload))

		Expect(rec.Entries[1].Tag).To(Equal(journal.Write))
		Expect(rec.Entries[1].ID).To(Equal(uint32(7)))

		Expect(rec.Entries[2].Tag).To(Equal(journal.End))
		Expect(rec.Entries[2].ID).To(Equal(uint32(7)))

		_, err = r.ReadRecord()
		Expect(err).To(Equal(io.EOF))
	})

	It("writes fixed 48-byte headers and entries plus payload and terminator", func() {
		w, err := journal.Open(path)
		Expect(err).NotTo(HaveOccurred())

		payload := make([]byte, 16)
		Expect(w.AppendWrite(fieldMessage(payload), 1)).To(Succeed())
		Expect(w.AppendEnd(1)).To(Succeed())
		Expect(w.CloseRecord()).To(Succeed())
		Expect(w.Close()).To(Succeed())

		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())

		const numEntries = 3 // Data, Write, End
		want := int64(journal.HeaderSize) + numEntries*48 + int64(len(payload)) + int64(len(journal.Terminator))
		Expect(info.Size()).To(Equal(want))
	})

	It("accumulates multiple writes and ends into a single record", func() {
		w, err := journal.Open(path)
		Expect(err).NotTo(HaveOccurred())

		msg := fieldMessage([]byte{9, 9})
		Expect(w.AppendWrite(msg, 1)).To(Succeed())
		Expect(w.AppendWrite(msg, 2)).To(Succeed())
		Expect(w.AppendEnd(1)).To(Succeed())
		Expect(w.AppendEnd(2)).To(Succeed())
		Expect(w.CloseRecord()).To(Succeed())
		Expect(w.Close()).To(Succeed())

		r, err := journal.OpenReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		rec, err := r.ReadRecord()
		Expect(err).NotTo(HaveOccurred())
		// one Data entry shared by both writes, two Write entries, two End entries
		Expect(rec.Entries).To(HaveLen(5))
		Expect(rec.Entries[0].Tag).To(Equal(journal.Data))
	})

	It("rejects a journal truncated mid-record as corrupt, not clean EOF", func() {
		w, err := journal.Open(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.AppendWrite(fieldMessage([]byte{1, 2, 3, 4}), 1)).To(Succeed())
		Expect(w.AppendEnd(1)).To(Succeed())
		Expect(w.CloseRecord()).To(Succeed())
		Expect(w.Close()).To(Succeed())

		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Truncate(path, info.Size()-2)).To(Succeed())

		r, err := journal.OpenReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		_, err = r.ReadRecord()
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(Equal(io.EOF))
	})

	It("rejects a non-first entry carrying a payload length", func() {
		w, err := journal.Open(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(w.AppendWrite(fieldMessage([]byte{1, 2, 3, 4}), 1)).To(Succeed())
		Expect(w.AppendEnd(1)).To(Succeed())
		Expect(w.CloseRecord()).To(Succeed())
		Expect(w.Close()).To(Succeed())

		// corrupt the Write entry's payload_length in place: it sits at
		// header(48) + data entry(48) + payload(4) + entry offset 8
		raw, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		raw[48+48+4+8] = 4
		Expect(os.WriteFile(path, raw, 0o644)).To(Succeed())

		r, err := journal.OpenReader(path)
		Expect(err).NotTo(HaveOccurred())
		defer r.Close()

		_, err = r.ReadRecord()
		Expect(err).To(HaveOccurred())
		Expect(err).NotTo(Equal(io.EOF))
	})

	It("AppendEnd without a preceding Data entry fails", func() {
		w, err := journal.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer w.Close()
		Expect(w.AppendEnd(1)).To(HaveOccurred())
	})
})
