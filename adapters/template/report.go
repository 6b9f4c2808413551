package exporttemplate

// ReportTemplate is the fixed book report layout. Entry fields are emitted
// without escaping; the publisher line switches on mfg_place.
const ReportTemplate = `<HTML>
    <HEAD>
        <TITLE>Book Report</TITLE>
    </HEAD>
    <BODY BGCOLOR="#FFFFFF" TEXT="#000000" LINK="#0000FF">
    {% autoescape off %}{% for entry in entries %}
    <p>
        <b>[{{ entry.inventory_id }}] {{ entry.author }} "{{ entry.title }}"; </b>
        {% if entry.isbn %}ISBN: {{ entry.isbn }}{% endif %}
        {% if entry.mfg_place %}{{ entry.mfg_place }}: {{ entry.publisher }}, {{ entry.year_published }}.{% else %}{{ entry.publisher }}, {{ entry.year_published }}.{% endif %}
        {{ entry.description }}
    </p>
    {% endfor %}{% endautoescape %}
    </BODY>
</HTML>
`
