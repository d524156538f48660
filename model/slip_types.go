package model

import "github.com/google/uuid"

// Fields is the raw field map of one Bitable record, keyed by column name.
type Fields map[string]any

// Record is one Bitable row as returned by the get, batch_get and list calls.
type Record struct {
	RecordID string `json:"record_id"`
	Fields   Fields `json:"fields"`
}

// Column names of the master table (phiếu xuất kho header).
const (
	MasterSoPhieu   = "Số phiếu"
	MasterHangMuc   = "Hạng mục"
	MasterXuong     = "Xưởng"
	MasterNgayXuat  = "Ngày xuất nhập"
	MasterNoiDung   = "Nội dung xuất"
	MasterDetailLnk = "Chi tiết nhập xuất"
)

// Column names of the detail table (one material line).
const (
	DetailSoPhieu  = "Số phiếu"
	DetailMaVT     = "Mã vật tư"
	DetailTenVT    = "Tên vật tư, thiết bị"
	DetailDVT      = "Đơn vị tính"
	DetailQuyCach  = "Quy cách, Mã hiệu"
	DetailNhanHieu = "Nhãn hiệu"
	DetailSoLuong  = "SL đề nghị đợt này"
	DetailGhiChu   = "Ghi chú"
)

// SlipItem is one printable line of the slip. Every value is already normalized text.
type SlipItem struct {
	MaVT     string `json:"ma_vt"`
	TenSP    string `json:"ten_sp"`
	DVT      string `json:"dvt"`
	QuyCach  string `json:"quy_cach"`
	NhanHieu string `json:"nhan_hieu"`
	SoLuong  string `json:"so_luong"`
	GhiChu   string `json:"ghi_chu"`
}

// RenderContext is the flattened, template-ready projection of one master record
// and its resolved detail rows. It lives for a single request.
type RenderContext struct {
	CurrentDate string     `json:"current_date"`
	SoPhieu     string     `json:"so_phieu"`
	DuAn        string     `json:"du_an"`
	Xuong       string     `json:"xuong"`
	NgayXuat    string     `json:"ngay_xuat"`
	NoiDung     string     `json:"noi_dung"`
	Items       []SlipItem `json:"items"`

	// BaseHref lets the template resolve relative assets (logo, css) from the template dir.
	BaseHref string `json:"-"`
}

// PrintLogEntry is one row of the print journal.
type PrintLogEntry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	RecordID  string    `db:"record_id" json:"recordId"`
	SoPhieu   string    `db:"so_phieu" json:"soPhieu"`
	ItemCount int       `db:"item_count" json:"itemCount"`
	Strategy  string    `db:"strategy" json:"strategy"`
	Format    string    `db:"format" json:"format"`
	PrintedAt string    `db:"printed_at" json:"printedAt"`
}
