package news

import (
	"testing"

	"guaymallen-backend/lib/fetch"
	"guaymallen-backend/lib/paginate"
	"guaymallen-backend/lib/telemetry"
	"guaymallen-backend/services/run"

	"github.com/stretchr/testify/require"
)

func htmlPage(markup string) paginate.Page {
	return paginate.Page{Response: fetch.Response{Status: 200, Text: markup}}
}

const losAndesListing = `<html><body><main><div><div>
<section class="grouper-simple-news news-article-wrapper">
	<div class="col col-lg-4"><a href="/politica/nota-uno">Nota uno</a></div>
	<div class="col col-lg-4"><a href="https://www.losandes.com.ar/sociedad/nota-dos">Nota dos</a></div>
	<div class="col col-lg-4"><a href="/politica/nota-uno">Nota uno repetida</a></div>
</section>
</div></div></main></body></html>`

func TestLosAndesListingResolvesRelativeLinks(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:news")
	defer cleanup()

	portal := NewLosAndes([]string{"https://www.losandes.com.ar/temas/mendoza"})
	links := portal.ExtractListingLinks(htmlPage(losAndesListing), "https://www.losandes.com.ar/temas/mendoza")

	require.Equal(t, []string{
		"https://www.losandes.com.ar/politica/nota-uno",
		"https://www.losandes.com.ar/sociedad/nota-dos",
	}, links)
}

const mdzListing = `<html><body>
<a class="news-article__link" href="https://www.mdzol.com/politica/n1">Primera</a>
<a class="other" href="https://www.mdzol.com/politica/ignorada">x</a>
<a class="news-article__link" href="/politica/n2">Segunda</a>
</body></html>`

func TestMDZListing(t *testing.T) {
	portal := NewMDZ(nil)
	links := portal.ExtractListingLinks(htmlPage(mdzListing), "https://www.mdzol.com/politica")

	require.Equal(t, []string{
		"https://www.mdzol.com/politica/n1",
		"https://www.mdzol.com/politica/n2",
	}, links)
}

const mdzArticle = `<html><body>
<h1>Anuncian obras en el Acceso Este</h1>
<div class="news-detail__lead"><p>El gobierno provincial</p><p>confirmó el cronograma.</p></div>
<div class="news-detail__body"><p>Primer párrafo.</p><p>Segundo párrafo.</p></div>
<time datetime="2026-08-26T10:00:00-03:00">26 de agosto</time>
<a href="/autor/jperez">Juana Pérez</a>
</body></html>`

func TestMDZArticleFields(t *testing.T) {
	portal := NewMDZ(nil)
	fields := portal.ExtractRecordFields(htmlPage(mdzArticle))

	require.Equal(t, "Anuncian obras en el Acceso Este", fields["headline"])
	require.Equal(t, "El gobierno provincial confirmó el cronograma.", fields["summary"])
	require.Equal(t, "Primer párrafo. Segundo párrafo.", fields["body"])
	require.Equal(t, "2026-08-26T10:00:00-03:00", fields["date"])
	require.Equal(t, "Juana Pérez", fields["author"])
}

// the article is intact except for the date element: that one field
// must come back empty, the rest populated
const elSolArticleNoDate = `<html><body>
<h1>Vendimia 2026 ya tiene fecha</h1>
<div class="newspack-post-subtitle">La fiesta central será en marzo.</div>
<div class="entry-content"><p>Cuerpo de la nota.</p></div>
<a class="url fn" href="/author/mgomez">M. Gómez</a>
</body></html>`

func TestElSolMissingDateLeavesFieldEmpty(t *testing.T) {
	portal := NewElSol(nil)
	fields := portal.ExtractRecordFields(htmlPage(elSolArticleNoDate))

	require.Equal(t, "Vendimia 2026 ya tiene fecha", fields["headline"])
	require.Equal(t, "La fiesta central será en marzo.", fields["summary"])
	require.Equal(t, "Cuerpo de la nota.", fields["body"])
	require.Equal(t, "M. Gómez", fields["author"])
	require.Equal(t, "", fields["date"])
}

const diarioUnoArticle = `<html><body>
<h1 class="nota-title">Título UNO</h1>
<p class="ignore-parser">Bajada sin h2.</p>
<div class="article-body"><p>Texto.</p></div>
<time>hace 2 horas</time>
<span class="author-name">Redacción</span>
</body></html>`

func TestDiarioUnoSummaryFallback(t *testing.T) {
	portal := NewDiarioUno(nil)
	fields := portal.ExtractRecordFields(htmlPage(diarioUnoArticle))

	// no h2 present, the second attempt kicks in
	require.Equal(t, "Bajada sin h2.", fields["summary"])
	require.Equal(t, "Título UNO", fields["headline"])
	require.Equal(t, "hace 2 horas", fields["date"])
}

func TestUnparsableListingYieldsNothing(t *testing.T) {
	portal := NewMDZ(nil)
	links := portal.ExtractListingLinks(htmlPage(""), "https://www.mdzol.com/politica")
	require.Empty(t, links)
}

func TestRegistry(t *testing.T) {
	portal, err := New("El Sol", []string{"https://www.elsol.com.ar/mendoza/"})
	require.NoError(t, err)
	require.Equal(t, "El Sol", portal.Name())
	require.Len(t, portal.Seeds(), 1)

	_, err = New("Clarín", nil)
	require.Error(t, err)

	require.Equal(t, []string{"Diario UNO", "El Sol", "Los Andes", "MDZ"}, Known())
}

func TestNearDuplicateHeadlines(t *testing.T) {
	records := []run.Record{
		{ID: "a", Source: "MDZ", Fields: map[string]string{"headline": "Anuncian obras en el Acceso Este"}},
		{ID: "b", Source: "El Sol", Fields: map[string]string{"headline": "Anuncian obras en el acceso este"}},
		{ID: "c", Source: "Los Andes", Fields: map[string]string{"headline": "Vendimia 2026 ya tiene fecha"}},
	}

	pairs := NearDuplicateHeadlines(records, 0)
	require.Len(t, pairs, 1)
	require.Equal(t, "a", pairs[0].A.ID)
	require.Equal(t, "b", pairs[0].B.ID)
	require.GreaterOrEqual(t, pairs[0].Similarity, 0.93)
}
