package mappers

import (
	"time"

	"pxk/model"
	"pxk/normalize"
)

// PrintedAtLayout is the "HH:MM:SS dd/mm/yyyy" stamp printed on every slip.
const PrintedAtLayout = "15:04:05 02/01/2006"

// ToRenderContext flattens a master record and its detail rows into the
// template context. Rows keep the order they were resolved in.
func ToRenderContext(master model.Fields, details []model.Fields, now time.Time) model.RenderContext {
	rc := model.RenderContext{
		CurrentDate: now.Format(PrintedAtLayout),
		SoPhieu:     normalize.Text(master[model.MasterSoPhieu]),
		DuAn:        normalize.Text(master[model.MasterHangMuc]),
		Xuong:       normalize.Text(master[model.MasterXuong]),
		NgayXuat:    normalize.Date(master[model.MasterNgayXuat]),
		NoiDung:     normalize.Text(master[model.MasterNoiDung]),
		Items:       make([]model.SlipItem, 0, len(details)),
	}
	for _, d := range details {
		rc.Items = append(rc.Items, ToSlipItem(d))
	}
	return rc
}

// ToSlipItem normalizes one detail row. Unit and brand are usually lookup arrays.
func ToSlipItem(d model.Fields) model.SlipItem {
	return model.SlipItem{
		MaVT:     normalize.Text(d[model.DetailMaVT]),
		TenSP:    normalize.Text(d[model.DetailTenVT]),
		DVT:      normalize.Text(d[model.DetailDVT]),
		QuyCach:  normalize.Text(d[model.DetailQuyCach]),
		NhanHieu: normalize.Text(d[model.DetailNhanHieu]),
		SoLuong:  normalize.Quantity(d[model.DetailSoLuong]),
		GhiChu:   normalize.Text(d[model.DetailGhiChu]),
	}
}
