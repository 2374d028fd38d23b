package engine

import (
	"fmt"
	"time"

	"github.com/starweave/starweave/internal/rdf"
)

// Dataset-catalog vocabularies used only by the provenance header.
const (
	nsDCAT = "http://www.w3.org/ns/dcat#"
	nsDCT  = "http://purl.org/dc/terms/"
)

// provenanceSubject is the dataset node the header describes. The
// document's base IRI wins when declared.
func (e *Executor) provenanceSubject() rdf.IRI {
	if e.spec.Base != "" {
		return rdf.IRI(e.spec.Base)
	}
	return rdf.IRI("urn:starweave:dataset")
}

// emitProvenance writes the dataset-level metadata header: catalog
// type, title, description, creation time, and one creator per
// declared author.
func (e *Executor) emitProvenance(out *rdf.Dataset) {
	s := e.provenanceSubject()
	out.Add(rdf.NewQuad(s, rdf.RDFType, rdf.IRI(nsDCAT+"Dataset")))
	out.Add(rdf.NewQuad(s, rdf.IRI(nsDCT+"title"), rdf.Literal{Value: e.docName}))
	out.Add(rdf.NewQuad(s, rdf.IRI(nsDCT+"description"),
		rdf.Literal{Value: fmt.Sprintf("Generated by starweave from %s", e.docName)}))
	out.Add(rdf.NewQuad(s, rdf.IRI(nsDCT+"created"), rdf.Literal{
		Value:    e.now().UTC().Format(time.RFC3339),
		Datatype: rdf.IRI(rdf.NSXSD + "dateTime"),
	}))
	for _, author := range e.spec.Authors {
		creator := author.Name
		if author.Email != "" {
			creator = fmt.Sprintf("%s <%s>", author.Name, author.Email)
		}
		out.Add(rdf.NewQuad(s, rdf.IRI(nsDCT+"creator"), rdf.Literal{Value: creator}))
	}
}

// Prefixes returns the namespace table the output should be encoded
// with: the document's declared prefixes plus the provenance
// vocabularies when the header is enabled.
func (e *Executor) Prefixes() map[string]string {
	out := make(map[string]string, len(e.spec.Prefixes)+2)
	for name, ns := range e.spec.Prefixes {
		out[name] = ns
	}
	if e.provenance {
		if _, ok := out["dcat"]; !ok {
			out["dcat"] = nsDCAT
		}
		if _, ok := out["dct"]; !ok {
			out["dct"] = nsDCT
		}
	}
	return out
}
