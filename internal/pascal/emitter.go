package pascal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// docWidth is the wrap width for { } comment text.
const docWidth = 100

// Header carries the provenance written at the top of every unit.
type Header struct {
	Version  string
	Revision string
	GenDate  time.Time
	DSTU     int
}

// Emitter renders a Model as Pascal units and writes them to a directory.
type Emitter struct {
	outputDir string
	header    Header
	log       logrus.FieldLogger
}

// NewEmitter creates an Emitter that writes units to outputDir.
func NewEmitter(outputDir string, header Header, log logrus.FieldLogger) *Emitter {
	return &Emitter{outputDir: outputDir, header: header, log: log}
}

// Render returns the source of every unit keyed by unit name. Units are
// FHIRConstants, FHIRTypes, FHIRResources and one per extra unit in the
// model.
func (e *Emitter) Render(model *Model) map[string]string {
	units := map[string]string{
		UnitConstants: e.renderConstants(model),
		UnitTypes:     e.renderClassUnit(model, UnitTypes),
		UnitResources: e.renderClassUnit(model, UnitResources),
	}
	for _, u := range ExtraUnits(model) {
		units[u] = e.renderClassUnit(model, u)
	}
	return units
}

// Emit renders the model and writes each unit to <outputDir>/<unit>.pas.
// Units are written concurrently; the first failure cancels the rest.
func (e *Emitter) Emit(ctx context.Context, model *Model) error {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	units := e.Render(model)
	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		src := units[name]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(e.outputDir, name+".pas")
			if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
				return fmt.Errorf("writing unit %s: %w", name, err)
			}
			e.log.WithFields(logrus.Fields{
				"unit": name,
				"size": humanize.Bytes(uint64(len(src))),
			}).Debug("Wrote unit.")
			return nil
		})
	}
	return g.Wait()
}

// unitWriter accumulates Pascal source.
type unitWriter struct {
	strings.Builder
}

func (w *unitWriter) line(indent int, format string, args ...any) {
	w.WriteString(strings.Repeat("  ", indent))
	if len(args) == 0 {
		w.WriteString(format)
	} else {
		fmt.Fprintf(w, format, args...)
	}
	w.WriteByte('\n')
}

func (w *unitWriter) blank() {
	w.WriteByte('\n')
}

// doc writes text as a { } comment block. Empty text writes nothing.
func (w *unitWriter) doc(indent int, text string) {
	for _, l := range docLines(text) {
		w.line(indent, "%s", l)
	}
}

// docLines renders text as the lines of a { } comment, relative to the
// comment's indentation.
func docLines(text string) []string {
	lines := wrapDoc(text, docWidth)
	switch len(lines) {
	case 0:
		return nil
	case 1:
		return []string{"{ " + lines[0] + " }"}
	}
	out := []string{"{"}
	for _, l := range lines {
		out = append(out, "  "+l)
	}
	return append(out, "}")
}

// list writes items one per line, separated by commas and followed by
// closing. comments, when non-nil, are appended to each item.
func (w *unitWriter) list(indent int, items, comments []string, closing string) {
	for i, item := range items {
		sep := ","
		if i == len(items)-1 {
			sep = closing
		}
		c := ""
		if comments != nil && comments[i] != "" {
			c = " { " + sanitizeDoc(comments[i]) + " }"
		}
		w.line(indent, "%s%s%s", item, sep, c)
	}
}

func (e *Emitter) writeHeader(w *unitWriter, unit string) {
	w.line(0, "unit %s;", unit)
	w.blank()
	w.line(0, "{")
	version := e.header.Version
	if e.header.Revision != "" {
		version += " (revision " + e.header.Revision + ")"
	}
	w.line(1, "Generated by fhir-delphi from FHIR v%s, DSTU%d.", version, e.header.DSTU)
	if !e.header.GenDate.IsZero() {
		w.line(1, "Definitions generated %s.", e.header.GenDate.UTC().Format(time.RFC3339))
	}
	w.line(1, "Do not edit this file by hand.")
	w.line(0, "}")
	w.blank()
	w.line(0, "{$I fhir.inc}")
	w.blank()
	w.line(0, "interface")
	w.blank()
}

func (e *Emitter) renderConstants(model *Model) string {
	var w unitWriter
	e.writeHeader(&w, UnitConstants)

	w.line(0, "uses")
	w.line(1, "SysUtils, Classes;")
	w.blank()

	date := ""
	if !e.header.GenDate.IsZero() {
		date = e.header.GenDate.UTC().Format("20060102150405")
	}
	w.line(0, "const")
	w.line(1, "FHIR_GENERATED_VERSION = %s;", quote(e.header.Version))
	w.line(1, "FHIR_GENERATED_REVISION = %s;", quote(e.header.Revision))
	w.line(1, "FHIR_GENERATED_DATE = %s;", quote(date))
	w.line(1, "FHIR_GENERATED_PUBLICATION = %s;", quote(strconv.Itoa(e.header.DSTU)))
	w.blank()

	resourceConsts := []string{"frtNull"}
	resourceCodes := []string{quote("")}
	for _, r := range model.ResourceTypes {
		resourceConsts = append(resourceConsts, resourceTypeConstName(r))
		resourceCodes = append(resourceCodes, quote(r))
	}
	resourceConsts = append(resourceConsts, "frtCustom")
	resourceCodes = append(resourceCodes, quote("Custom"))

	w.line(0, "type")
	w.line(1, "{ Resource types }")
	w.line(1, "TFhirResourceType = (")
	w.list(2, resourceConsts, nil, ");")
	if len(resourceConsts) <= 256 {
		w.line(1, "TFhirResourceTypeSet = set of TFhirResourceType;")
	}

	for _, s := range model.Searches {
		w.blank()
		w.line(1, "{ Search parameters for %s }", s.Resource)
		w.line(1, "%s = (", s.Name)
		names := make([]string, len(s.Params))
		comments := make([]string, len(s.Params))
		for i, p := range s.Params {
			names[i] = p.Name
			comments[i] = p.Code + " (" + p.Type + ")"
		}
		w.list(2, names, comments, ");")
	}

	for _, en := range model.Enums {
		w.blank()
		w.doc(1, en.Doc)
		w.line(1, "%s = (", en.Name)
		names := []string{en.NullName()}
		comments := []string{"Value is missing from Instance"}
		for _, v := range en.Values {
			names = append(names, v.Name)
			comments = append(comments, v.Code)
		}
		w.list(2, names, comments, ");")
		if en.SetAllowed() {
			w.line(1, "%s = set of %s;", en.ListName(), en.Name)
		}
	}
	w.blank()

	w.line(0, "const")
	w.line(1, "CODES_TFhirResourceType : Array[TFhirResourceType] of String = (")
	w.list(2, resourceCodes, nil, ");")

	for _, s := range model.Searches {
		codes := make([]string, len(s.Params))
		descs := make([]string, len(s.Params))
		for i, p := range s.Params {
			codes[i] = quote(p.Code)
			descs[i] = quote(p.Description)
		}
		w.line(1, "CODES_%s : Array[%s] of String = (", s.Name, s.Name)
		w.list(2, codes, nil, ");")
		w.line(1, "DESC_%s : Array[%s] of String = (", s.Name, s.Name)
		w.list(2, descs, nil, ");")
	}

	for _, en := range model.Enums {
		codes := []string{quote("")}
		systems := []string{quote("")}
		for _, v := range en.Values {
			codes = append(codes, quote(v.Code))
			systems = append(systems, quote(v.System))
		}
		w.line(1, "CODES_%s : Array[%s] of String = (", en.Name, en.Name)
		w.list(2, codes, nil, ");")
		w.line(1, "SYSTEMS_%s : Array[%s] of String = (", en.Name, en.Name)
		w.list(2, systems, nil, ");")
	}
	w.blank()

	w.line(0, "implementation")
	w.blank()
	w.line(0, "end.")
	return w.String()
}

// usesFor returns the generated units a class unit depends on.
func usesFor(unit string) []string {
	uses := []string{"SysUtils", "Classes", "StringSupport", "DateSupport", UnitBase, UnitConstants}
	switch unitRank(unit) {
	case rankResources:
		uses = append(uses, UnitTypes)
	case rankExtra:
		uses = append(uses, UnitTypes, UnitResources)
	}
	return uses
}

func (e *Emitter) renderClassUnit(model *Model, unit string) string {
	var classes []*PasClass
	for _, c := range model.Classes {
		if c.Unit == unit {
			classes = append(classes, c)
		}
	}
	classes = SortClasses(classes)

	var w unitWriter
	e.writeHeader(&w, unit)

	w.line(0, "uses")
	w.line(1, "%s;", strings.Join(usesFor(unit), ", "))
	w.blank()

	if len(classes) > 0 {
		w.line(0, "type")
		for _, c := range classes {
			w.line(1, "%s = class;", c.Name)
			w.line(1, "%s = class;", c.ListName())
		}
		for _, c := range classes {
			w.blank()
			writeClassDecl(&w, model, c)
			w.blank()
			writeListDecl(&w, c)
		}
		w.blank()
	}

	w.line(0, "implementation")
	w.blank()
	for _, c := range classes {
		writeClassImpl(&w, model, c)
		writeListImpl(&w, c)
	}
	w.line(0, "end.")
	return w.String()
}

// publishable reports whether Delphi can publish a property of the given
// type. Records, dynamic arrays and large sets are not publishable.
func publishable(typ string, model *Model) bool {
	switch typ {
	case "TDateTimeEx", "TBytes":
		return false
	}
	if strings.HasSuffix(typ, "EnumList") {
		if en := model.Enum(strings.TrimSuffix(typ, "List")); en != nil {
			return len(en.Values)+1 <= 32
		}
	}
	return true
}

// stem is the capitalized field name without list suffix or reserved
// word escape.
func stem(f *PasField) string {
	return capitalize(strings.TrimSuffix(f.Name, "_"))
}

// hasST reports whether a field gets value accessors in addition to the
// element property.
func hasST(f *PasField, model *Model) bool {
	switch {
	case f.Kind == FieldPrimitive && !f.List:
		return true
	case f.Kind == FieldEnum && !f.List:
		return true
	case f.Kind == FieldEnum && f.List:
		en := model.Enum(f.Enum)
		return en != nil && en.SetAllowed()
	}
	return false
}

// stType returns the Delphi value type of a field's ST accessors.
func stType(f *PasField) string {
	if f.Kind == FieldEnum {
		if f.List {
			return f.Enum + "List"
		}
		return f.Enum
	}
	return f.ValueType
}

func writeClassDecl(w *unitWriter, model *Model, c *PasClass) {
	w.doc(1, c.Doc)
	w.line(1, "%s = class (%s)", c.Name, c.Parent)
	w.line(1, "protected")
	if c.IsRootPrimitive() {
		w.line(2, "FValue : %s;", c.ValueType)
	}
	for _, f := range c.Fields {
		w.line(2, "%s : %s;", f.StorageName(), f.StorageType())
	}
	for _, f := range c.Fields {
		if f.List {
			w.line(2, "function Get%s : %s;", f.AccessorName(), f.StorageType())
			w.line(2, "function GetHas%s : Boolean;", f.AccessorName())
		} else {
			w.line(2, "procedure Set%s(value : %s);", f.AccessorName(), f.StorageType())
		}
		if hasST(f, model) {
			w.line(2, "function Get%sST : %s;", stem(f), stType(f))
			w.line(2, "procedure Set%sST(value : %s);", stem(f), stType(f))
		}
	}
	if c.Kind == ClassResource && !c.Abstract {
		w.line(2, "function GetResourceType : TFhirResourceType; override;")
	}
	w.line(1, "public")
	w.line(2, "constructor Create; override;")
	if c.IsRootPrimitive() {
		w.line(2, "constructor Create(value : %s); overload;", c.ValueType)
	}
	w.line(2, "destructor Destroy; override;")
	w.line(2, "function Link : %s; overload;", c.Name)
	w.line(2, "function Clone : %s; overload;", c.Name)
	w.line(2, "procedure Assign(oSource : %s); override;", classBase)
	w.line(2, "function FhirType : string; override;")

	var public, published []string
	if c.IsRootPrimitive() {
		prop := fmt.Sprintf("property value : %s read FValue write FValue;", c.ValueType)
		if publishable(c.ValueType, model) {
			published = append(published, prop)
		} else {
			public = append(public, prop)
		}
	}
	for _, f := range c.Fields {
		published = append(published, docLines(f.Doc)...)
		if f.List {
			published = append(published,
				fmt.Sprintf("property %s : %s read Get%s;", listPropName(f), f.StorageType(), f.AccessorName()),
				fmt.Sprintf("property %s : Boolean read GetHas%s;", hasPropName(f), f.AccessorName()))
		} else {
			published = append(published,
				fmt.Sprintf("property %s : %s read %s write Set%s;", elementPropName(f), f.StorageType(), f.StorageName(), f.AccessorName()))
		}
		if hasST(f, model) {
			prop := fmt.Sprintf("property %s : %s read Get%sST write Set%sST;", stPropName(f), stType(f), stem(f), stem(f))
			if publishable(stType(f), model) {
				published = append(published, prop)
			} else {
				public = append(public, prop)
			}
		}
	}
	for _, p := range public {
		w.line(2, "%s", p)
	}
	if len(published) > 0 {
		w.line(1, "published")
		for _, p := range published {
			w.line(2, "%s", p)
		}
	}
	w.line(1, "end;")
}

// stPropName is the property exposing the Delphi value. It keeps the
// reserved word escape for single values and enum sets alike.
func stPropName(f *PasField) string {
	return f.Name
}

func listPropName(f *PasField) string {
	return strings.TrimSuffix(f.Name, "_") + "List"
}

func hasPropName(f *PasField) string {
	return "has" + f.AccessorName()
}

// elementPropName is the property holding a single element. Objects are
// exposed under the field name, everything else as xElement.
func elementPropName(f *PasField) string {
	if f.Kind == FieldObject {
		return f.Name
	}
	return strings.TrimSuffix(f.Name, "_") + "Element"
}

// propertyNames lists every property writeClassDecl declares for f.
func propertyNames(f *PasField, model *Model) []string {
	var names []string
	if f.List {
		names = append(names, listPropName(f), hasPropName(f))
	} else {
		names = append(names, elementPropName(f))
	}
	if hasST(f, model) {
		names = append(names, stPropName(f))
	}
	return names
}

func writeListDecl(w *unitWriter, c *PasClass) {
	w.line(1, "%s = class (%s)", c.ListName(), classObjectList)
	w.line(1, "private")
	w.line(2, "function GetItemN(index : Integer) : %s;", c.Name)
	w.line(2, "procedure SetItemN(index : Integer; value : %s);", c.Name)
	w.line(1, "public")
	w.line(2, "function Link : %s; overload;", c.ListName())
	w.line(2, "function Clone : %s; overload;", c.ListName())
	w.line(2, "function Append : %s;", c.Name)
	w.line(2, "function AddItem(value : %s) : %s; overload;", c.Name, c.Name)
	w.line(2, "function IndexOf(value : %s) : Integer;", c.Name)
	w.line(2, "property %s[index : Integer] : %s read GetItemN write SetItemN; default;", itemsName(c), c.Name)
	w.line(1, "end;")
}

// itemsName is the default array property of a list class
// ("TFhirPatient" → "FhirPatients").
func itemsName(c *PasClass) string {
	return strings.TrimPrefix(c.Name, "T") + "s"
}

var (
	stDefault = map[string]string{
		"String":      "''",
		"Boolean":     "false",
		"TDateTimeEx": "TDateTimeEx.makeNull",
		"TBytes":      "nil",
	}
	stPresent = map[string]string{
		"String":      "value <> ''",
		"TDateTimeEx": "value.notNull",
		"TBytes":      "value <> nil",
	}
)

func writeClassImpl(w *unitWriter, model *Model, c *PasClass) {
	w.line(0, "{ %s }", c.Name)
	w.blank()

	w.line(0, "constructor %s.Create;", c.Name)
	w.line(0, "begin")
	w.line(1, "inherited;")
	w.line(0, "end;")
	w.blank()

	if c.IsRootPrimitive() {
		w.line(0, "constructor %s.Create(value : %s);", c.Name, c.ValueType)
		w.line(0, "begin")
		w.line(1, "Create;")
		w.line(1, "FValue := value;")
		w.line(0, "end;")
		w.blank()
	}

	w.line(0, "destructor %s.Destroy;", c.Name)
	w.line(0, "begin")
	for _, f := range c.Fields {
		w.line(1, "%s.Free;", f.StorageName())
	}
	w.line(1, "inherited;")
	w.line(0, "end;")
	w.blank()

	w.line(0, "procedure %s.Assign(oSource : %s);", c.Name, classBase)
	w.line(0, "begin")
	w.line(1, "inherited;")
	if c.IsRootPrimitive() {
		w.line(1, "FValue := %s(oSource).FValue;", c.Name)
	}
	for _, f := range c.Fields {
		src := fmt.Sprintf("%s(oSource).%s", c.Name, f.StorageName())
		if f.List {
			w.line(1, "if %s = nil then", src)
			w.line(1, "begin")
			w.line(2, "%s.Free;", f.StorageName())
			w.line(2, "%s := nil;", f.StorageName())
			w.line(1, "end")
			w.line(1, "else")
			w.line(1, "begin")
			w.line(2, "Get%s.Assign(%s);", f.AccessorName(), src)
			w.line(1, "end;")
			continue
		}
		w.line(1, "if %s = nil then", src)
		w.line(2, "Set%s(nil)", f.AccessorName())
		w.line(1, "else")
		w.line(2, "Set%s(%s(%s.Clone));", f.AccessorName(), f.StorageType(), src)
	}
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.FhirType : string;", c.Name)
	w.line(0, "begin")
	w.line(1, "result := %s;", quote(c.FHIRName))
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.Link : %s;", c.Name, c.Name)
	w.line(0, "begin")
	w.line(1, "result := %s(inherited Link);", c.Name)
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.Clone : %s;", c.Name, c.Name)
	w.line(0, "begin")
	w.line(1, "result := %s(inherited Clone);", c.Name)
	w.line(0, "end;")
	w.blank()

	if c.Kind == ClassResource && !c.Abstract {
		w.line(0, "function %s.GetResourceType : TFhirResourceType;", c.Name)
		w.line(0, "begin")
		w.line(1, "result := %s;", resourceTypeConstName(c.FHIRName))
		w.line(0, "end;")
		w.blank()
	}

	for _, f := range c.Fields {
		writeFieldImpl(w, model, c, f)
	}
}

func writeFieldImpl(w *unitWriter, model *Model, c *PasClass, f *PasField) {
	storage := f.StorageName()
	if f.List {
		create := f.StorageType() + ".Create"
		if f.Kind == FieldEnum {
			create = fmt.Sprintf("%s.Create(SYSTEMS_%s, CODES_%s)", classEnumList, f.Enum, f.Enum)
		}
		w.line(0, "function %s.Get%s : %s;", c.Name, f.AccessorName(), f.StorageType())
		w.line(0, "begin")
		w.line(1, "if %s = nil then", storage)
		w.line(2, "%s := %s;", storage, create)
		w.line(1, "result := %s;", storage)
		w.line(0, "end;")
		w.blank()
		w.line(0, "function %s.GetHas%s : Boolean;", c.Name, f.AccessorName())
		w.line(0, "begin")
		w.line(1, "result := (%s <> nil) and (%s.count > 0);", storage, storage)
		w.line(0, "end;")
		w.blank()
	} else {
		w.line(0, "procedure %s.Set%s(value : %s);", c.Name, f.AccessorName(), f.StorageType())
		w.line(0, "begin")
		w.line(1, "%s.Free;", storage)
		w.line(1, "%s := value;", storage)
		w.line(0, "end;")
		w.blank()
	}

	if !hasST(f, model) {
		return
	}
	typ := stType(f)
	switch {
	case f.Kind == FieldPrimitive:
		w.line(0, "function %s.Get%sST : %s;", c.Name, stem(f), typ)
		w.line(0, "begin")
		w.line(1, "if %s = nil then", storage)
		w.line(2, "result := %s", stDefault[typ])
		w.line(1, "else")
		w.line(2, "result := %s.value;", storage)
		w.line(0, "end;")
		w.blank()
		w.line(0, "procedure %s.Set%sST(value : %s);", c.Name, stem(f), typ)
		w.line(0, "begin")
		if cond, ok := stPresent[typ]; ok {
			w.line(1, "if %s then", cond)
			w.line(1, "begin")
			w.line(2, "if %s = nil then", storage)
			w.line(3, "%s := %s.Create;", storage, f.Type)
			w.line(2, "%s.value := value;", storage)
			w.line(1, "end")
			w.line(1, "else if %s <> nil then", storage)
			w.line(1, "begin")
			w.line(2, "%s.Free;", storage)
			w.line(2, "%s := nil;", storage)
			w.line(1, "end;")
		} else {
			w.line(1, "if %s = nil then", storage)
			w.line(2, "%s := %s.Create;", storage, f.Type)
			w.line(1, "%s.value := value;", storage)
		}
		w.line(0, "end;")
		w.blank()

	case !f.List:
		w.line(0, "function %s.Get%sST : %s;", c.Name, stem(f), typ)
		w.line(0, "begin")
		w.line(1, "if %s = nil then", storage)
		w.line(2, "result := %s(0)", typ)
		w.line(1, "else")
		w.line(2, "result := %s(StringArrayIndexOfSensitive(CODES_%s, %s.value));", typ, typ, storage)
		w.line(0, "end;")
		w.blank()
		w.line(0, "procedure %s.Set%sST(value : %s);", c.Name, stem(f), typ)
		w.line(0, "begin")
		w.line(1, "if ord(value) = 0 then")
		w.line(2, "Set%s(nil)", f.AccessorName())
		w.line(1, "else")
		w.line(2, "Set%s(%s.Create(SYSTEMS_%s[value], CODES_%s[value]));", f.AccessorName(), classEnum, typ, typ)
		w.line(0, "end;")
		w.blank()

	default:
		w.line(0, "function %s.Get%sST : %s;", c.Name, stem(f), typ)
		w.line(0, "var")
		w.line(1, "i : Integer;")
		w.line(0, "begin")
		w.line(1, "result := [];")
		w.line(1, "if %s <> nil then", storage)
		w.line(2, "for i := 0 to %s.count - 1 do", storage)
		w.line(3, "result := result + [%s(StringArrayIndexOfSensitive(CODES_%s, %s[i].value))];", f.Enum, f.Enum, storage)
		w.line(0, "end;")
		w.blank()
		w.line(0, "procedure %s.Set%sST(value : %s);", c.Name, stem(f), typ)
		w.line(0, "var")
		w.line(1, "a : %s;", f.Enum)
		w.line(0, "begin")
		w.line(1, "Get%s.clear;", f.AccessorName())
		w.line(1, "for a := low(%s) to high(%s) do", f.Enum, f.Enum)
		w.line(2, "if a in value then")
		w.line(3, "%s.add(%s.Create(SYSTEMS_%s[a], CODES_%s[a]));", storage, classEnum, f.Enum, f.Enum)
		w.line(0, "end;")
		w.blank()
	}
}

func writeListImpl(w *unitWriter, c *PasClass) {
	list := c.ListName()
	w.line(0, "{ %s }", list)
	w.blank()

	w.line(0, "function %s.AddItem(value : %s) : %s;", list, c.Name, c.Name)
	w.line(0, "begin")
	w.line(1, "add(value);")
	w.line(1, "result := value;")
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.Append : %s;", list, c.Name)
	w.line(0, "begin")
	w.line(1, "result := %s.Create;", c.Name)
	w.line(1, "try")
	w.line(2, "add(result.Link);")
	w.line(1, "finally")
	w.line(2, "result.Free;")
	w.line(1, "end;")
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.IndexOf(value : %s) : Integer;", list, c.Name)
	w.line(0, "begin")
	w.line(1, "result := IndexByReference(value);")
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.GetItemN(index : Integer) : %s;", list, c.Name)
	w.line(0, "begin")
	w.line(1, "result := %s(ObjectByIndex[index]);", c.Name)
	w.line(0, "end;")
	w.blank()

	w.line(0, "procedure %s.SetItemN(index : Integer; value : %s);", list, c.Name)
	w.line(0, "begin")
	w.line(1, "ObjectByIndex[index] := value;")
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.Link : %s;", list, list)
	w.line(0, "begin")
	w.line(1, "result := %s(inherited Link);", list)
	w.line(0, "end;")
	w.blank()

	w.line(0, "function %s.Clone : %s;", list, list)
	w.line(0, "begin")
	w.line(1, "result := %s(inherited Clone);", list)
	w.line(0, "end;")
	w.blank()
}
